// Package anomaly flags places whose latest report looks like a lost update:
// a positive count in the previous date column followed by no value in the
// newest one. These are findings for the operator, not errors.
//
// The two columns compared are the last two entries of the dataset's own
// date order, never the position of columns in the workbook.
package anomaly
