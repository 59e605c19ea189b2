package launch

import (
	"github.com/scriptisto/scriptisto/pkg/buildsys"
)

const (
	// BuildModeEnv selects the build mode: unset or empty, source or full
	BuildModeEnv = "SCRIPTISTO_BUILD"
	// BuildLogsEnv streams build output to stderr if present, regardless of its value
	BuildLogsEnv = "SCRIPTISTO_BUILD_LOGS"
)

// LookupFunc has the signature of os.LookupEnv
type LookupFunc func(key string) (string, bool)

// ModeFromEnv reads the build mode from SCRIPTISTO_BUILD.
func ModeFromEnv(lookup LookupFunc) (buildsys.Mode, error) {
	value, _ := lookup(BuildModeEnv)
	mode, err := buildsys.ParseMode(value)
	if err != nil {
		return buildsys.ModeDefault, &BuildModeError{Value: value, Err: err}
	}

	return mode, nil
}

// ShowLogsFromEnv reports whether SCRIPTISTO_BUILD_LOGS is set.
func ShowLogsFromEnv(lookup LookupFunc) bool {
	_, present := lookup(BuildLogsEnv)
	return present
}
