package config

const (
	defaultOutputsDir     = "outputs"
	defaultLogDir         = "~/.local/share/comicflow/logs"
	defaultEngine         = "seedance-api"
	defaultModelID        = "doubao-seedance-1-5-pro-251215"
	defaultDraftMode      = true
	defaultFallbackMode   = "i2v"
	defaultScoreThreshold = 75
	defaultRegenPolicy    = "first_shot"
	defaultMinFreeMiB     = 64
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputsDir: defaultOutputsDir,
			LogDir:     defaultLogDir,
		},
		Generate: Generate{
			Engine:       defaultEngine,
			ModelID:      defaultModelID,
			DraftMode:    defaultDraftMode,
			FallbackMode: defaultFallbackMode,
		},
		Eval: Eval{
			ScoreThreshold: defaultScoreThreshold,
			RegenPolicy:    defaultRegenPolicy,
		},
		Preflight: Preflight{
			Enabled:    true,
			MinFreeMiB: defaultMinFreeMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
