// Package cmd implements the scriptisto command line.
package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/scriptisto/scriptisto/pkg/buildsys"
	"github.com/scriptisto/scriptisto/pkg/launch"
	"github.com/scriptisto/scriptisto/pkg/scriptlog"
	"github.com/scriptisto/scriptisto/pkg/templates"
)

// these are replaced in tests
var (
	newService       = buildsys.NewService
	newTemplateStore = templates.NewStore
	replacer         = launch.ProcessReplacer
	lookupEnv        = launch.LookupFunc(os.LookupEnv)
)

// env is shared by all commands of a single invocation
type env struct {
	stdout io.Writer
	stderr io.Writer
	color  bool
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scriptisto <script> [args...]",
		Short: "A 'shebang-interpreter' for compiled languages",
		Long: `scriptisto builds scripts written in compiled languages on their first run and
executes the cached binary afterwards. The build instructions are embedded in the script
between scriptisto-begin and scriptisto-end.

Put "#!/usr/bin/env scriptisto" at the top of a script and run it directly or pass its
path to scriptisto. Use "scriptisto new" to get started.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			return runScript(cmd.Context(), args[0], args[1:])
		},
	}
	// everything after the script path belongs to the script
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.SetOut(e.stdout)
	rootCmd.SetErr(e.stderr)

	rootCmd.AddCommand(newBuildCmd(e))
	rootCmd.AddCommand(newCacheCmd(e))
	rootCmd.AddCommand(newNewCmd(e))
	rootCmd.AddCommand(newTemplateCmd(e))
	rootCmd.AddCommand(newPosixCmd())

	return rootCmd
}

// scriptArg reports whether arg names an existing file and returns its absolute path.
func scriptArg(arg string) (string, bool) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", false
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", false
	}

	return abs, true
}

func runScript(ctx context.Context, script string, args []string) error {
	abs, err := filepath.Abs(script)
	if err != nil {
		return eris.Wrapf(err, "failed to resolve %s", script)
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	return launch.Run(ctx, svc, replacer, abs, args, lookupEnv)
}

func run(ctx context.Context, args []string, e *env) error {
	cfg, err := loadConfig(lookupEnv)
	if err != nil {
		return err
	}

	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, cfg.Debug)
	}

	logger := zerolog.New(NewConsoleWriter(e.stderr, e.color, cfg.Debug)).Level(cfg.LogLevel)
	ctx = scriptlog.WithLogger(ctx, &logger)

	// a script path skips flag parsing so that the script receives its arguments untouched
	if len(args) > 0 {
		if script, ok := scriptArg(args[0]); ok {
			return runScript(ctx, script, args[1:])
		}
	}

	rootCmd := newRootCmd(e)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// Execute runs the command line and exits with status 1 on errors
func Execute() {
	e := &env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		color:  term.IsTerminal(int(os.Stderr.Fd())),
	}

	err := run(context.Background(), os.Args[1:], e)
	if err != nil {
		_, debug := lookupEnv(DebugEnv)
		printError(e.stderr, err, e.color, debug)
		os.Exit(1)
	}
}
