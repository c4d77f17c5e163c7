// Package config loads and validates the dripfeed TOML configuration.
//
// Configuration sections by subsystem:
//   - Paths: state, staging, log, and outbox directories
//   - Phases: named source folder sets, one per rebuild pass
//   - Rebuild: polling, timeout, and pacing knobs for a run
//   - Logging: log format and level
package config
