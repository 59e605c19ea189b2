package cmd

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/scriptisto/scriptisto/pkg/launch"
)

const (
	// LogLevelEnv sets the log level, warn by default so that launches stay silent
	LogLevelEnv = "SCRIPTISTO_LOG"
	// DebugEnv adds stack traces to error messages if present
	DebugEnv = "SCRIPTISTO_DEBUG"
)

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// config holds the settings read from the environment. Flags can't be used because everything
// after the script path belongs to the script.
type config struct {
	LogLevel zerolog.Level
	Debug    bool
}

func loadConfig(lookup launch.LookupFunc) (config, error) {
	cfg := config{LogLevel: zerolog.WarnLevel}

	value, _ := lookup(LogLevelEnv)
	if value != "" {
		level, ok := logLevels[strings.ToLower(value)]
		if !ok {
			return cfg, eris.Errorf("invalid value for %s: %s (must be one of trace, debug, info, warn, error)", LogLevelEnv, value)
		}
		cfg.LogLevel = level
	}

	_, cfg.Debug = lookup(DebugEnv)
	return cfg, nil
}
