package config

const (
	defaultStateDir           = "~/.local/share/dripfeed"
	defaultStagingDir         = "~/.local/share/dripfeed/staging"
	defaultLogDir             = "~/.local/share/dripfeed/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultPollInterval       = 5
	defaultInactivityTimeout  = 900
	defaultRestorePauseMS     = 250
	defaultConsolidationPause = 60
	defaultMinFreeSpaceGiB    = 1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Phases: map[string]Phase{},
		Rebuild: Rebuild{
			PollInterval:       defaultPollInterval,
			InactivityTimeout:  defaultInactivityTimeout,
			RestorePauseMS:     defaultRestorePauseMS,
			ConsolidationPause: defaultConsolidationPause,
			MinFreeSpaceGiB:    defaultMinFreeSpaceGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
