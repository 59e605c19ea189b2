package buildsys

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
)

// Mode controls how aggressively Perform rebuilds a script
type Mode int

const (
	// ModeDefault only builds if the staged sources changed or nothing was built, yet
	ModeDefault Mode = iota
	// ModeSource always runs build_cmd
	ModeSource
	// ModeFull also runs build_once_cmd again and rebuilds the Docker image from scratch
	ModeFull
)

var _ pflag.Value = (*Mode)(nil)

// ParseMode maps "" to ModeDefault, "source" to ModeSource and "full" to ModeFull.
func ParseMode(value string) (Mode, error) {
	switch value {
	case "":
		return ModeDefault, nil
	case "source":
		return ModeSource, nil
	case "full":
		return ModeFull, nil
	default:
		return ModeDefault, eris.Errorf("incorrect build mode value %q. Available values: <unset>, source, full", value)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeSource:
		return "source"
	case ModeFull:
		return "full"
	default:
		return ""
	}
}

// Set implements pflag.Value
func (m *Mode) Set(value string) error {
	parsed, err := ParseMode(value)
	if err != nil {
		return err
	}

	*m = parsed
	return nil
}

// Type implements pflag.Value
func (m *Mode) Type() string {
	return "mode"
}
