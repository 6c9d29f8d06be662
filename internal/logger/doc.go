// Package logger writes structured JSON log lines and keeps the in-process
// metrics of a pipeline run.
//
// Each line is one JSON object with a timestamp, a level, a message, optional
// fields and an optional error string. Lines below the logger's level are
// dropped.
//
//	logger.Warn("Unparseable count stored as null", logger.Fields{
//	    "concelho": "Lisboa",
//	    "value":    "n/d",
//	})
//
// Metrics are counters, gauges and timings aggregated by name. The pipeline
// times every stage under "stage.<name>" and the whole run under "run", counts
// runs by outcome and logs a snapshot when a run finishes:
//
//	logger.RecordTiming("stage.extract", time.Since(start))
//	logger.Debug("Run metrics", logger.GetMetricsSnapshot().Fields())
package logger
