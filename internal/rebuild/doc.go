// Package rebuild drives the phase/day loop of a staged rebuild run:
// discover, stage, then release one calendar day at a time, waiting for
// each day's batch to resolve before the next is released.
package rebuild
