package buildspec

import (
	"fmt"
	"strings"
)

// ConfigError is returned when the embedded configuration is missing or can't be parsed.
type ConfigError struct {
	Text string
	Err  error
}

var _ error = (*ConfigError)(nil)

func (e *ConfigError) Error() string {
	if strings.TrimSpace(e.Text) == "" {
		return fmt.Sprintf("cannot parse config YAML (no %s block found?): %v", BeginMarker, e.Err)
	}

	return fmt.Sprintf("cannot parse config YAML:\n%s\n%v", e.Text, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NestingError is returned when a begin marker shows up inside an open config block.
type NestingError struct {
	Line int
}

var _ error = (*NestingError)(nil)

func (e *NestingError) Error() string {
	return fmt.Sprintf("line %d: found %s inside a config block which is still open (missing %s?)", e.Line, BeginMarker, EndMarker)
}
