package extract

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// glyph is a run of text placed on the page. X is the left edge and Top the
// baseline, both in points from the top-left corner of the page.
type glyph struct {
	X    float64
	Top  float64
	W    float64
	Size float64
	S    string
}

func (g glyph) right() float64 {
	return g.X + g.W
}

func (g glyph) size() float64 {
	if g.Size <= 0 {
		return 8
	}
	return g.Size
}

// textCell is a horizontally contiguous piece of text on one line.
type textCell struct {
	X    float64
	Text string
}

// textLine is the cells sharing one baseline. Size is the largest font size
// on the line.
type textLine struct {
	Top   float64
	Size  float64
	Cells []textCell
}

func (l textLine) texts() []string {
	out := make([]string, len(l.Cells))
	for i, c := range l.Cells {
		out[i] = c.Text
	}
	return out
}

// hasCount reports whether the line ends in a numeric cell.
func (l textLine) hasCount() bool {
	return len(l.Cells) > 0 && isNumeric(l.Cells[len(l.Cells)-1].Text)
}

// name returns the text left of the count cell, or the whole line when it
// has no count.
func (l textLine) name() string {
	texts := l.texts()
	if l.hasCount() {
		texts = texts[:len(texts)-1]
	}
	return strings.Join(texts, " ")
}

func (l textLine) count() string {
	if !l.hasCount() {
		return ""
	}
	return l.Cells[len(l.Cells)-1].Text
}

// beside reports whether l is level with the count line c: its baseline is
// within three quarters of c's font size. A count centred on a two-line name
// sits about half a line from each half.
func (l textLine) beside(c textLine) bool {
	return math.Abs(l.Top-c.Top) <= c.Size*0.75
}

// Slots for lines that belong to no counted row.
const headerSlot = -1

// buildTable assembles the glyphs of one region into a table. Every line that
// ends in a number anchors a row. A line without a number joins the row of a
// count it is level with; otherwise it is a wrapped name line and joins the
// next row below it, the way the report wraps long names inside a cell. Name
// parts are joined with "\r" in top to bottom order.
//
// Lines above the first row that are not level with it are the column
// header. With header set they become the table header; otherwise they are
// discarded.
func buildTable(glyphs []glyph, header bool) RegionTable {
	lines := groupLines(glyphs)

	var anchors []int
	for i, l := range lines {
		if l.hasCount() {
			anchors = append(anchors, i)
		}
	}

	// names[k] collects the name parts of anchors[k]; the extra last slot
	// holds lines below the last row.
	names := make([][]string, len(anchors)+1)
	var head []textLine
	next := 0
	for i, l := range lines {
		for next < len(anchors) && anchors[next] < i {
			next++
		}
		slot := next
		if next >= len(anchors) || anchors[next] != i {
			slot = rowOf(lines, anchors, next, l)
		}
		if slot == headerSlot {
			head = append(head, l)
			continue
		}
		if name := l.name(); name != "" {
			names[slot] = append(names[slot], name)
		}
	}

	rows := make([][]string, 0, len(anchors)+1)
	for k, idx := range anchors {
		rows = append(rows, []string{strings.Join(names[k], "\r"), lines[idx].count()})
	}
	if trailing := names[len(anchors)]; len(trailing) > 0 {
		rows = append(rows, []string{strings.Join(trailing, "\r"), ""})
	}

	if header {
		return NamedTable{Header: buildHeader(head, countColumnX(lines)), Rows: rows}
	}
	return PositionalTable{Rows: rows}
}

// rowOf picks the row of a line without a count. next is the position in
// anchors of the first count line below l. The result is an index into
// anchors, len(anchors) for lines below the last row, or headerSlot.
func rowOf(lines []textLine, anchors []int, next int, l textLine) int {
	hasAbove, hasBelow := next > 0, next < len(anchors)
	var above, below textLine
	if hasAbove {
		above = lines[anchors[next-1]]
	}
	if hasBelow {
		below = lines[anchors[next]]
	}

	switch {
	case hasAbove && l.beside(above) && (!hasBelow || l.Top-above.Top <= below.Top-l.Top):
		return next - 1
	case hasBelow && (hasAbove || l.beside(below)):
		return next
	case hasAbove:
		return len(anchors)
	default:
		return headerSlot
	}
}

// buildHeader places each header cell in the name column or the count column
// by its position relative to the count cells below it, joining the lines of
// a wrapped label with "\r".
func buildHeader(lines []textLine, split float64) []string {
	var cols [2][]string
	for _, line := range lines {
		for i, c := range line.Cells {
			col := 0
			switch {
			case split > 0 && c.X >= split:
				col = 1
			case split <= 0 && len(line.Cells) > 1 && i == len(line.Cells)-1:
				col = 1
			}
			cols[col] = append(cols[col], c.Text)
		}
	}
	return []string{strings.Join(cols[0], "\r"), strings.Join(cols[1], "\r")}
}

// countColumnX returns the boundary between the name and count columns:
// halfway between the leftmost name cell and the leftmost count cell of the
// data rows. Zero when no row has both.
func countColumnX(lines []textLine) float64 {
	nameX, countX := -1.0, -1.0
	for _, l := range lines {
		if !l.hasCount() || len(l.Cells) < 2 {
			continue
		}
		if x := l.Cells[0].X; nameX < 0 || x < nameX {
			nameX = x
		}
		if x := l.Cells[len(l.Cells)-1].X; countX < 0 || x < countX {
			countX = x
		}
	}
	if nameX < 0 || countX <= nameX {
		return 0
	}
	return (nameX + countX) / 2
}

// groupLines sorts glyphs top to bottom and left to right, groups those
// sharing a baseline into lines, and splits each line into cells.
func groupLines(glyphs []glyph) []textLine {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := append([]glyph(nil), glyphs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Top != sorted[j].Top {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []textLine
	var current []glyph
	emit := func() {
		if len(current) == 0 {
			return
		}
		line := textLine{Top: current[0].Top, Cells: splitCells(current)}
		for _, g := range current {
			line.Size = math.Max(line.Size, g.size())
		}
		if len(line.Cells) > 0 {
			lines = append(lines, line)
		}
		current = nil
	}

	for _, g := range sorted {
		if len(current) > 0 && g.Top-current[0].Top > g.size()*0.5 {
			emit()
		}
		current = append(current, g)
	}
	emit()
	return lines
}

// splitCells joins the glyphs of one line into cells. A gap wider than a
// font size and a half starts a new cell; a smaller but visible gap is a word
// space.
func splitCells(line []glyph) []textCell {
	sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })

	var cells []textCell
	var b strings.Builder
	cellX := 0.0
	flush := func() {
		if text := strings.Join(strings.Fields(b.String()), " "); text != "" {
			cells = append(cells, textCell{X: cellX, Text: text})
		}
		b.Reset()
	}

	for i, g := range line {
		if i == 0 {
			cellX = g.X
		} else {
			gap := g.X - line[i-1].right()
			switch {
			case gap > g.size()*1.5:
				flush()
				cellX = g.X
			case gap > g.size()*0.2:
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	flush()
	return cells
}

// isNumeric reports whether s is a case count, allowing thousands separators.
func isNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',' || unicode.IsSpace(r):
		default:
			return false
		}
	}
	return digits > 0
}

// estimateWidth approximates the advance of s for fonts that report no widths.
func estimateWidth(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * 0.5
}
