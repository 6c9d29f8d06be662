// Package pipeline runs the daily update: locate the report, download it,
// extract the municipality table, merge it into the dataset and check the
// result.
//
// Stages run strictly in order and the first failure stops the run with a
// *StageError naming the stage. Progress lines go to the writer given to New;
// every run, successful or not, is recorded in the journal when one is set.
package pipeline
