// Package manifest persists what a rebuild run has already achieved.
//
// The manifest is a resumability aid, never the source of truth for what
// data exists: a missing or corrupt file degrades to empty defaults so the
// orchestrator can always start. Every mutation is written back to disk
// immediately, so a crash loses at most the in-flight call.
package manifest
