package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pfrederiksen/dgs-reports/internal/anomaly"
	"github.com/pfrederiksen/dgs-reports/internal/config"
	"github.com/pfrederiksen/dgs-reports/internal/dataset"
	"github.com/pfrederiksen/dgs-reports/internal/extract"
	"github.com/pfrederiksen/dgs-reports/internal/logger"
	"github.com/pfrederiksen/dgs-reports/internal/scraper"
	"github.com/pfrederiksen/dgs-reports/internal/storage"
)

// Stage names a pipeline step.
type Stage string

const (
	StageLocate  Stage = "locate"
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageMerge   Stage = "merge"
	StageCheck   Stage = "check"
)

// StageError wraps the failure of one stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Journal records finished runs.
type Journal interface {
	Record(ctx context.Context, run *storage.RunRecord) (int64, error)
}

// Result describes a successful run.
type Result struct {
	Day        time.Time
	ReportURL  string
	ReportPath string
	CSVPath    string
	RowsRead   int
	Merge      *dataset.MergeResult
	Anomalies  *anomaly.Report
}

// Pipeline runs the stages against one configuration.
type Pipeline struct {
	scraper   *scraper.Scraper
	extractor *extract.Extractor
	store     *dataset.Store
	journal   Journal
	out       io.Writer
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*pipelineOptions)

type pipelineOptions struct {
	engine  extract.Engine
	journal Journal
	client  *http.Client
	now     func() time.Time
}

// WithEngine replaces the PDF extraction engine.
func WithEngine(e extract.Engine) Option {
	return func(o *pipelineOptions) {
		o.engine = e
	}
}

// WithJournal records every run in j.
func WithJournal(j Journal) Option {
	return func(o *pipelineOptions) {
		o.journal = j
	}
}

// WithHTTPClient sets the client used for the listing page and the report.
func WithHTTPClient(c *http.Client) Option {
	return func(o *pipelineOptions) {
		o.client = c
	}
}

// WithClock sets the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *pipelineOptions) {
		o.now = now
	}
}

// New creates a Pipeline for cfg. Progress lines are written to out.
func New(cfg *config.Config, out io.Writer, opts ...Option) *Pipeline {
	o := &pipelineOptions{
		engine: extract.NewPDFEngine(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	scraperOpts := []scraper.Option{
		scraper.WithTimeout(cfg.HTTPTimeout),
		scraper.WithUserAgent(cfg.UserAgent),
	}
	if o.client != nil {
		scraperOpts = append(scraperOpts, scraper.WithHTTPClient(o.client))
	}

	return &Pipeline{
		scraper:   scraper.New(cfg.ListingURL, cfg.ReportsDir, scraperOpts...),
		extractor: extract.New(o.engine, cfg.Layout(), cfg.ReportsDir),
		store:     dataset.NewStore(cfg.DatasetPath(), cfg.DatasetSheet),
		journal:   o.journal,
		out:       out,
		now:       o.now,
	}
}

// Run processes the report published for day.
func (p *Pipeline) Run(ctx context.Context, day time.Time) (*Result, error) {
	run := &storage.RunRecord{
		RunDate:   day.Format("2006-01-02"),
		StartedAt: p.now(),
	}
	result, err := p.run(ctx, day, run)

	run.FinishedAt = p.now()
	run.Status = storage.StatusOK
	if err != nil {
		run.Status = storage.StatusFailed
		run.Error = err.Error()
		var se *StageError
		if errors.As(err, &se) {
			run.Stage = string(se.Stage)
		}
		logger.IncrCounter("runs_failed")
	} else {
		logger.IncrCounter("runs_ok")
	}
	logger.RecordTiming("run", run.FinishedAt.Sub(run.StartedAt))
	logger.Debug("Run metrics", logger.GetMetricsSnapshot().Fields())
	p.record(ctx, run)

	return result, err
}

func (p *Pipeline) run(ctx context.Context, day time.Time, run *storage.RunRecord) (*Result, error) {
	result := &Result{Day: day}

	p.progress("Getting the URL for the new report...")
	err := p.stage(StageLocate, func() error {
		href, err := p.scraper.LocateReport(ctx, day)
		if err != nil {
			return err
		}
		result.ReportURL, err = p.scraper.ResolveURL(href)
		return err
	})
	if err != nil {
		return nil, err
	}
	run.ReportURL = result.ReportURL
	p.progress("Done. URL: " + result.ReportURL)

	p.progress("Downloading report...")
	err = p.stage(StageFetch, func() error {
		var err error
		result.ReportPath, err = p.scraper.FetchReport(ctx, result.ReportURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	run.ReportPath = result.ReportPath
	p.progress("Done. Saved to: " + result.ReportPath)

	p.progress("Scraping municipalities data from report...")
	err = p.stage(StageExtract, func() error {
		extracted, err := p.extractor.Extract(ctx, result.ReportPath)
		if err != nil {
			return err
		}
		result.CSVPath = extracted.CSVPath
		result.RowsRead = len(extracted.Records)
		return nil
	})
	if err != nil {
		return nil, err
	}
	run.CSVPath, run.RowsExtracted = result.CSVPath, result.RowsRead
	p.progress("Done. Saved to: " + result.CSVPath)

	p.progress("Adding new data to database...")
	var ds *dataset.Dataset
	err = p.stage(StageMerge, func() error {
		var err error
		ds, result.Merge, err = p.merge(result.CSVPath, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	run.RowsMatched = result.Merge.Matched
	run.Unmatched, run.Dropped = result.Merge.Unmatched, result.Merge.Dropped
	logMerge(result.Merge, p.store.Path())
	p.progress("Done.")

	p.progress("Checking new data for incongruities...")
	err = p.stage(StageCheck, func() error {
		var err error
		result.Anomalies, err = anomaly.Check(ds)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, f := range result.Anomalies.Findings {
		run.Anomalies = append(run.Anomalies, f.Concelho)
	}
	logger.SetGauge("anomalies", float64(len(result.Anomalies.Findings)))
	p.progress("Done.")

	return result, nil
}

// merge adds the batch at csvPath to the dataset as the column for day and
// saves it.
func (p *Pipeline) merge(csvPath string, day time.Time) (*dataset.Dataset, *dataset.MergeResult, error) {
	records, err := dataset.ReadRecords(csvPath)
	if err != nil {
		return nil, nil, err
	}
	ds, err := p.store.Load()
	if err != nil {
		return nil, nil, err
	}
	merged, err := dataset.Merge(ds, records, day)
	if err != nil {
		return nil, nil, err
	}
	if err := p.store.Save(ds); err != nil {
		return nil, nil, err
	}
	return ds, merged, nil
}

// MergeCSV merges a previously extracted CSV as the column for day and checks
// the result. It is the last two stages of Run on their own, for re-running a
// day whose report was already extracted.
func (p *Pipeline) MergeCSV(csvPath string, day time.Time) (*dataset.MergeResult, *anomaly.Report, error) {
	var (
		ds     *dataset.Dataset
		merged *dataset.MergeResult
		report *anomaly.Report
	)
	err := p.stage(StageMerge, func() error {
		var err error
		ds, merged, err = p.merge(csvPath, day)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	logMerge(merged, p.store.Path())

	err = p.stage(StageCheck, func() error {
		var err error
		report, err = anomaly.Check(ds)
		return err
	})
	if err != nil {
		return merged, nil, err
	}
	return merged, report, nil
}

// Check runs the anomaly check on the saved dataset.
func (p *Pipeline) Check() (*anomaly.Report, error) {
	var report *anomaly.Report
	err := p.stage(StageCheck, func() error {
		ds, err := p.store.Load()
		if err != nil {
			return err
		}
		report, err = anomaly.Check(ds)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// stage runs fn, timing it and wrapping its error.
func (p *Pipeline) stage(name Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	logger.RecordTiming("stage."+string(name), time.Since(start))
	if err != nil {
		logger.Error("Stage failed", logger.Fields{"stage": string(name)}, err)
		return &StageError{Stage: name, Err: err}
	}
	logger.Debug("Stage finished", logger.Fields{
		"stage":       string(name),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (p *Pipeline) progress(line string) {
	if p.out != nil {
		fmt.Fprintln(p.out, line)
	}
}

func (p *Pipeline) record(ctx context.Context, run *storage.RunRecord) {
	if p.journal == nil {
		return
	}
	// Journal failures never fail the run.
	if _, err := p.journal.Record(ctx, run); err != nil {
		logger.Warn("Failed to record run", logger.Fields{
			"run_date": run.RunDate,
			"status":   run.Status,
			"error":    err.Error(),
		})
	}
}

func logMerge(m *dataset.MergeResult, path string) {
	fields := logger.Fields{
		"path":      path,
		"column":    m.Column,
		"matched":   m.Matched,
		"unmatched": len(m.Unmatched),
		"dropped":   len(m.Dropped),
		"invalid":   len(m.Invalid),
	}
	logger.Info("Merged report into dataset", fields)
	if len(m.Unmatched) > 0 {
		logger.Warn("Dataset places missing from report set to null", logger.Fields{"column": m.Column, "places": m.Unmatched})
	}
	if len(m.Dropped) > 0 {
		logger.Warn("Report places missing from dataset dropped", logger.Fields{"column": m.Column, "places": m.Dropped})
	}
}
