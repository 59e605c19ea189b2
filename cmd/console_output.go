package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ConsoleWriter renders zerolog's JSON events as colored lines
type ConsoleWriter struct {
	out      io.Writer
	colorize colorstring.Colorize
	verbose  bool

	buffer strings.Builder
	lock   sync.Mutex
}

var _ io.Writer = (*ConsoleWriter)(nil)

func newColorize(enabled bool) colorstring.Colorize {
	return colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: !enabled,
		Reset:   true,
	}
}

func NewConsoleWriter(out io.Writer, color, verbose bool) *ConsoleWriter {
	return &ConsoleWriter{
		out:      out,
		colorize: newColorize(color),
		verbose:  verbose,
	}
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	level, _ := evt[zerolog.LevelFieldName].(string)
	var prefix string
	switch level {
	case "fatal", "error":
		prefix = "[red][bold]error:"
	case "warn":
		prefix = "[yellow]warning:"
	case "debug", "trace":
		prefix = "[blue]" + level + ":"
	default:
		prefix = "[green]" + level + ":"
	}

	w.buffer.Reset()
	w.buffer.WriteString(w.colorize.Color(prefix))
	w.buffer.WriteString(" ")

	if step, ok := evt["step"].(string); ok {
		w.buffer.WriteString(step + ": ")
	}

	msg, _ := evt[zerolog.MessageFieldName].(string)
	w.buffer.WriteString(msg)

	if errorDetails, ok := evt[zerolog.ErrorFieldName].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	if w.verbose {
		names := make([]string, 0, len(evt))
		for name := range evt {
			switch name {
			case zerolog.LevelFieldName, zerolog.MessageFieldName, zerolog.ErrorFieldName, "step":
			default:
				names = append(names, name)
			}
		}
		sort.Strings(names)

		for _, name := range names {
			w.buffer.WriteString(fmt.Sprintf("\n  %s: %+v", name, evt[name]))
		}
	}

	w.buffer.WriteString("\n")
	_, err = io.WriteString(w.out, w.buffer.String())
	if err != nil {
		return 0, err
	}

	return len(p), nil
}

// printError writes the final error message of a failed invocation.
func printError(out io.Writer, err error, color, withTrace bool) {
	colorize := newColorize(color)
	fmt.Fprintf(out, "%s %s\n", colorize.Color("[red][bold]Error:"), eris.ToString(err, withTrace))
}

func printTask(out io.Writer, color bool, msg string) {
	colorize := newColorize(color)
	fmt.Fprintf(out, "%s %s\n", colorize.Color("[blue][bold]==>"), msg)
}

func printSubtask(out io.Writer, color bool, msg string) {
	colorize := newColorize(color)
	fmt.Fprintf(out, "%s %s\n", colorize.Color("[green][bold]  ->"), msg)
}
