// Package storage provides the SQLite run journal.
//
// Every pipeline run, successful or not, is recorded with the report it
// processed, the row counts of the merge, the places that were nulled or
// dropped, and the places flagged by the anomaly check. The default location
// is ~/.local/share/dgs-reports/history.db.
package storage
