// Package dataset maintains the wide-format municipality dataset: one row per
// concelho, one column per report date.
//
// The dataset is stored as an xlsx workbook. Columns whose header looks like a
// report date (YYYY/MM/DD) hold nullable case counts; every other column is
// static text (concelho, distrito_ilha, codigo, ...). The order of the date
// columns is kept explicitly in Dataset.Dates and persisted in a hidden sheet
// of the same workbook, so the most recent report is always Dates[len-1].
//
// Merge left-joins a batch of extracted records onto the dataset by concelho
// and appends the new date column. Places of the dataset missing from the batch
// get a null count; places of the batch missing from the dataset are dropped.
// Both are reported in the MergeResult.
package dataset
