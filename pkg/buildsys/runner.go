package buildsys

import (
	"context"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// shellJob describes a single build command
type shellJob struct {
	Name    string
	Command string
	Dir     string
	Env     []string
	Stdout  io.Writer
	Stderr  io.Writer
	// Tool is the path of our own executable, used for the portable mv, rm and mkdir helpers
	Tool string
}

func posixHelpers(tool string) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if tool != "" && len(args) > 0 && runtime.GOOS == "windows" {
				switch args[0] {
				case "mv", "rm", "mkdir":
					// these aren't available without a POSIX environment on Windows
					args = append([]string{tool, "posix"}, args...)
				}
			}

			return next(ctx, args)
		}
	}
}

var defaultOpenHandler = interp.DefaultOpenHandler()

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

func buildEnv(extra map[string]string) []string {
	envVars := os.Environ()
	result := make([]string, 0, len(envVars)+len(extra))
	for _, item := range envVars {
		name, _, _ := strings.Cut(item, "=")
		if _, present := extra[name]; !present {
			result = append(result, item)
		}
	}

	for name, value := range extra {
		result = append(result, name+"="+value)
	}

	return result
}

// runShell parses and executes a build command with mvdan.cc/sh. The command fails on the first
// failing statement, just like `sh -ec`.
func runShell(ctx context.Context, job shellJob) error {
	parser := syntax.NewParser()
	file, err := parser.Parse(strings.NewReader(job.Command), job.Name)
	if err != nil {
		return eris.Wrapf(err, "failed to parse %s %q", job.Name, job.Command)
	}

	runner, err := interp.New(
		interp.Dir(job.Dir),
		interp.Env(expand.ListEnviron(job.Env...)),
		interp.ExecHandlers(posixHelpers(job.Tool)),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, job.Stdout, job.Stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "failed to initialize runner")
	}

	printer := syntax.NewPrinter(syntax.Minify(true))
	strBuffer := strings.Builder{}

	for _, stmt := range file.Stmts {
		strBuffer.Reset()
		printer.Print(&strBuffer, stmt)
		log(ctx).Debug().
			Str("step", job.Name).
			Bool("command", true).
			Msg(strBuffer.String())

		err = runner.Run(ctx, stmt)
		if err != nil {
			if status, ok := interp.IsExitStatus(err); ok {
				return eris.Errorf("%s %q exited with status %d", job.Name, job.Command, status)
			}
			return eris.Wrapf(err, "%s %q failed", job.Name, job.Command)
		}

		if runner.Exited() {
			break
		}

		if err = ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
