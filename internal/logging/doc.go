// Package logging builds slog loggers with the console and JSON handlers
// shared by the dripfeed CLI and its run components.
package logging
