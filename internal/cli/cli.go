package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/dgs-reports/internal/anomaly"
	"github.com/pfrederiksen/dgs-reports/internal/config"
	"github.com/pfrederiksen/dgs-reports/internal/logger"
	"github.com/pfrederiksen/dgs-reports/internal/pipeline"
	"github.com/pfrederiksen/dgs-reports/internal/storage"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitAnomalies = 2
)

// DateLayout is the format of --date.
const DateLayout = "2006-01-02"

// Version is set at build time.
var Version = "dev"

// ErrAnomalies is returned when --fail-on-anomalies is set and the check
// flagged places.
var ErrAnomalies = errors.New("anomalies found")

type options struct {
	configPath      string
	date            string
	format          string
	verbose         bool
	failOnAnomalies bool
	historyLimit    int
	csvPath         string

	cfg          *config.Config
	outputFormat OutputFormat
	extra        []pipeline.Option
	now          func() time.Time
}

// NewRootCmd creates the root command. extra options are passed to every
// pipeline the commands build.
func NewRootCmd(extra ...pipeline.Option) *cobra.Command {
	opts := &options{extra: extra, now: time.Now}

	cmd := &cobra.Command{
		Use:   "dgs-reports",
		Short: "Add the daily DGS municipality report to the dataset",
		Long: `Downloads the daily DGS COVID-19 situation report, extracts the confirmed
cases per municipality (concelho), appends them as a new date column to the
dataset workbook and flags places whose count disappeared since the last report.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts)
		},
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/dgs-reports/config.yaml or ./dgs-reports.yaml)")
	flags.StringVar(&opts.format, "format", "text", "Output format: text or json")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	flags.BoolVar(&opts.failOnAnomalies, "fail-on-anomalies", false, "Exit with code 2 when the check flags places")

	cmd.Flags().StringVar(&opts.date, "date", "", "Report date, YYYY-MM-DD (default: today)")

	cmd.AddCommand(newMergeCmd(opts), newCheckCmd(opts), newHistoryCmd(opts))
	return cmd
}

func newMergeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge an already extracted CSV into the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "CSV written by a previous run (required)")
	cmd.Flags().StringVar(&opts.date, "date", "", "Date of the report, YYYY-MM-DD (default: today)")
	cmd.MarkFlagRequired("csv")
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the saved dataset for incongruities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.historyLimit, "limit", "n", 10, "Number of runs to show (0 for all)")
	return cmd
}

// setup loads the configuration and the logger shared by every command.
func (o *options) setup(cmd *cobra.Command) error {
	format, err := ParseFormat(o.format)
	if err != nil {
		return err
	}
	o.outputFormat = format

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if o.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	logger.Debug("Configuration loaded", logger.Fields{
		"config":         o.configPath,
		"listing_url":    cfg.ListingURL,
		"reports_dir":    cfg.ReportsDir,
		"dataset":        cfg.DatasetPath(),
		"layout_version": cfg.LayoutVersion,
	})
	return nil
}

func (o *options) day() (time.Time, error) {
	if strings.TrimSpace(o.date) == "" {
		now := o.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(o.date), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", o.date)
	}
	return day, nil
}

// progressWriter keeps stdout clean for JSON output.
func (o *options) progressWriter(cmd *cobra.Command) io.Writer {
	if o.outputFormat == FormatJSON {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

// openJournal returns nil when the journal is disabled or cannot be opened.
func (o *options) openJournal() *storage.Journal {
	if o.cfg.HistoryPath == "" {
		return nil
	}
	j, err := storage.Open(o.cfg.HistoryPath)
	if err != nil {
		logger.Warn("Run journal unavailable", logger.Fields{"path": o.cfg.HistoryPath, "error": err.Error()})
		return nil
	}
	return j
}

func (o *options) pipeline(cmd *cobra.Command, journal *storage.Journal) *pipeline.Pipeline {
	popts := []pipeline.Option{}
	if journal != nil {
		popts = append(popts, pipeline.WithJournal(journal))
	}
	popts = append(popts, o.extra...)
	return pipeline.New(o.cfg, o.progressWriter(cmd), popts...)
}

// runPipeline is the main command logic
func runPipeline(cmd *cobra.Command, opts *options) error {
	day, err := opts.day()
	if err != nil {
		return err
	}

	journal := opts.openJournal()
	if journal != nil {
		defer journal.Close()
	}

	result, err := opts.pipeline(cmd, journal).Run(cmd.Context(), day)
	if err != nil {
		return err
	}

	out := &OutputResult{
		CheckedAt:     opts.now().UTC(),
		Date:          day.Format(DateLayout),
		ReportURL:     result.ReportURL,
		ReportPath:    result.ReportPath,
		CSVPath:       result.CSVPath,
		RowsExtracted: result.RowsRead,
		Merge:         result.Merge,
		Anomalies:     result.Anomalies,
	}
	return finish(cmd, opts, out)
}

func runMerge(cmd *cobra.Command, opts *options) error {
	day, err := opts.day()
	if err != nil {
		return err
	}

	merged, report, err := opts.pipeline(cmd, nil).MergeCSV(opts.csvPath, day)
	if err != nil {
		return err
	}

	out := &OutputResult{
		CheckedAt: opts.now().UTC(),
		Date:      day.Format(DateLayout),
		CSVPath:   opts.csvPath,
		Merge:     merged,
		Anomalies: report,
	}
	return finish(cmd, opts, out)
}

func runCheck(cmd *cobra.Command, opts *options) error {
	report, err := opts.pipeline(cmd, nil).Check()
	if err != nil {
		return err
	}
	return finish(cmd, opts, &OutputResult{CheckedAt: opts.now().UTC(), Anomalies: report})
}

func runHistory(cmd *cobra.Command, opts *options) error {
	if opts.cfg.HistoryPath == "" {
		return errors.New("run journal is disabled (history_path is empty)")
	}
	journal, err := storage.Open(opts.cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	runs, err := journal.Recent(cmd.Context(), opts.historyLimit)
	if err != nil {
		return err
	}
	return WriteHistory(cmd.OutOrStdout(), runs, opts.outputFormat)
}

// finish writes the result and maps findings to ErrAnomalies when requested.
func finish(cmd *cobra.Command, opts *options, out *OutputResult) error {
	if err := WriteOutput(cmd.OutOrStdout(), out, opts.outputFormat, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if opts.failOnAnomalies && !reportEmpty(out.Anomalies) {
		return ErrAnomalies
	}
	return nil
}

func reportEmpty(r *anomaly.Report) bool {
	return r == nil || r.Empty()
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrAnomalies):
		return ExitAnomalies
	default:
		return ExitError
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, ErrAnomalies) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}
