package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RunRecord is one pipeline run.
type RunRecord struct {
	ID         int64     `json:"id"`
	RunDate    string    `json:"run_date"` // report date, YYYY-MM-DD
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	ReportURL  string `json:"report_url,omitempty"`
	ReportPath string `json:"report_path,omitempty"`
	CSVPath    string `json:"csv_path,omitempty"`

	RowsExtracted int      `json:"rows_extracted"`
	RowsMatched   int      `json:"rows_matched"`
	Unmatched     []string `json:"unmatched,omitempty"`
	Dropped       []string `json:"dropped,omitempty"`
	Anomalies     []string `json:"anomalies,omitempty"`

	Status string `json:"status"`
	Stage  string `json:"stage,omitempty"` // stage that failed
	Error  string `json:"error,omitempty"`
}

// Journal stores run records in a SQLite database.
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, path: path}
	if err := j.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating journal tables: %w", err)
	}
	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_date TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		report_url TEXT NOT NULL DEFAULT '',
		report_path TEXT NOT NULL DEFAULT '',
		csv_path TEXT NOT NULL DEFAULT '',
		rows_extracted INTEGER NOT NULL DEFAULT 0,
		rows_matched INTEGER NOT NULL DEFAULT 0,
		unmatched TEXT NOT NULL DEFAULT '[]',
		dropped TEXT NOT NULL DEFAULT '[]',
		anomalies TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		stage TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_run_date ON runs(run_date);
	`
	_, err := j.db.ExecContext(ctx, schema)
	return err
}

// Record inserts a run and sets its ID.
func (j *Journal) Record(ctx context.Context, run *RunRecord) (int64, error) {
	lists := make([]string, 3)
	for i, l := range [][]string{run.Unmatched, run.Dropped, run.Anomalies} {
		if l == nil {
			l = []string{}
		}
		data, err := json.Marshal(l)
		if err != nil {
			return 0, fmt.Errorf("encoding run: %w", err)
		}
		lists[i] = string(data)
	}

	query := `
	INSERT INTO runs (run_date, started_at, finished_at, report_url, report_path, csv_path,
		rows_extracted, rows_matched, unmatched, dropped, anomalies, status, stage, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := j.db.ExecContext(ctx, query,
		run.RunDate,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.ReportURL,
		run.ReportPath,
		run.CSVPath,
		run.RowsExtracted,
		run.RowsMatched,
		lists[0],
		lists[1],
		lists[2],
		run.Status,
		run.Stage,
		run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// Recent returns up to n runs, newest first. n <= 0 returns every run.
func (j *Journal) Recent(ctx context.Context, n int) ([]*RunRecord, error) {
	query := `
	SELECT id, run_date, started_at, finished_at, report_url, report_path, csv_path,
		rows_extracted, rows_matched, unmatched, dropped, anomalies, status, stage, error
	FROM runs
	ORDER BY id DESC
	`
	args := []interface{}{}
	if n > 0 {
		query += "LIMIT ?"
		args = append(args, n)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		var (
			run                RunRecord
			started, finished  string
			unmatched, dropped string
			anomalies          string
		)
		if err := rows.Scan(
			&run.ID,
			&run.RunDate,
			&started,
			&finished,
			&run.ReportURL,
			&run.ReportPath,
			&run.CSVPath,
			&run.RowsExtracted,
			&run.RowsMatched,
			&unmatched,
			&dropped,
			&anomalies,
			&run.Status,
			&run.Stage,
			&run.Error,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		for _, f := range []struct {
			raw string
			dst *[]string
		}{
			{unmatched, &run.Unmatched},
			{dropped, &run.Dropped},
			{anomalies, &run.Anomalies},
		} {
			if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
				return nil, fmt.Errorf("parsing run %d: %w", run.ID, err)
			}
			if len(*f.dst) == 0 {
				*f.dst = nil
			}
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
