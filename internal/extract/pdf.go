package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/pfrederiksen/dgs-reports/internal/config"
)

// Engine reads the region tables of one report page. It is the extraction
// primitive the Extractor builds on.
type Engine interface {
	ExtractRegions(ctx context.Context, path string, layout config.Layout) ([]RegionTable, error)
}

// a4Height is used when a page carries no usable MediaBox.
const a4Height = 842.0

// PDFEngine extracts region tables from the positioned text of a PDF page.
type PDFEngine struct{}

// NewPDFEngine creates a PDFEngine.
func NewPDFEngine() *PDFEngine {
	return &PDFEngine{}
}

// ExtractRegions returns one table per layout region, in layout order.
func (e *PDFEngine) ExtractRegions(ctx context.Context, path string, layout config.Layout) ([]RegionTable, error) {
	texts, height, err := readPage(path, layout.Page)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions, err := regionGlyphs(texts, height, layout.Regions)
	if err != nil {
		return nil, err
	}

	tables := make([]RegionTable, 0, len(regions))
	for _, glyphs := range regions {
		tables = append(tables, buildTable(glyphs, layout.Header))
	}
	return tables, nil
}

// regionGlyphs converts page text to glyphs measured from the top-left corner
// of a page of the given height and sorts them into regions. A glyph belongs
// to a region when the middle of its baseline lies inside it. Every region
// must receive some text.
func regionGlyphs(texts []pdf.Text, height float64, regions []config.Region) ([][]glyph, error) {
	out := make([][]glyph, len(regions))
	for _, t := range texts {
		w := t.W
		if w <= 0 {
			w = estimateWidth(t.S, t.FontSize)
		}
		g := glyph{X: t.X, Top: height - t.Y, W: w, Size: t.FontSize, S: t.S}
		for i, r := range regions {
			if r.Contains(g.X+g.W/2, g.Top) {
				out[i] = append(out[i], g)
			}
		}
	}
	for i, glyphs := range out {
		if len(glyphs) == 0 {
			return nil, &ExtractionError{Region: i + 1, Err: errors.New("no text inside region")}
		}
	}
	return out, nil
}

// readPage returns the text of a page and the page height. Coordinates are
// the document's own, from the bottom-left corner. The pdf package panics on
// some malformed streams, so panics are turned into errors.
func readPage(path string, page int) (texts []pdf.Text, height float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	if page < 1 || page > r.NumPage() {
		return nil, 0, fmt.Errorf("document has %d pages, layout needs page %d", r.NumPage(), page)
	}

	p := r.Page(page)
	if p.V.IsNull() {
		return nil, 0, fmt.Errorf("page %d is empty", page)
	}

	return p.Content().Text, pageHeight(p), nil
}

// pageHeight reads the MediaBox of the page, following inheritance from the
// page tree.
func pageHeight(p pdf.Page) float64 {
	v := p.V
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return a4Height
}
