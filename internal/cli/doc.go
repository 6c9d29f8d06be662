// Package cli implements the command-line interface for dgs-reports.
//
// The root command runs the whole daily pipeline: it locates the situation report
// for the requested date, downloads it, extracts the municipality table, merges it
// into the dataset and prints the anomaly check. Subcommands re-run parts of it:
// merge (an already extracted CSV), check (the saved dataset) and history (the run
// journal). Output is text or JSON; the exit code is 0 on success, 1 on failure and
// 2 when --fail-on-anomalies is set and the check flagged places.
package cli
