// Package scheduler runs the charge window pipeline for one dispatch state:
// input validation, normalization, merging, core reconciliation, window
// selection and slot rendering. A Scheduler is immutable after New and safe
// for concurrent use.
package scheduler
