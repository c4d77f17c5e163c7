// Package staging relocates source files out of the watched ingestion
// folders and releases them back in controlled, date-ordered batches.
//
// While a file sits in the staging root the workers cannot consume it, so
// the orchestrator fully controls release order. The staging map is kept
// on disk next to the staged files: it is removed on clean completion and
// deliberately left behind after an abnormal termination so an operator
// (or the next run) can recover.
package staging
