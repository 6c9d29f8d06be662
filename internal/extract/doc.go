// Package extract turns the municipality table of a DGS situation report into a
// two-column CSV.
//
// An Engine reads the configured page of the PDF and returns one RegionTable per
// layout region. A RegionTable is either a NamedTable, when the engine recovered a
// header row, or a PositionalTable, when it did not. Normalize maps both shapes to
// Records {concelho, confirmados}, concatenating regions in layout order and
// collapsing line breaks inside place names. The Extractor writes the result as
// UTF-16 CSV next to the report.
//
// Layout drift is not detected here: a region that no longer matches the page
// yields garbage or empty rows, and the anomaly check after the merge is what
// surfaces it.
package extract
