// Package launch turns a script into the process of its build artifact.
//
// Run drives a single launch: the build mode is read from the environment, the build is delegated
// to a Builder, the artifact is resolved inside the cache directory and finally the current process
// is replaced with it.
package launch

import (
	"context"

	"github.com/scriptisto/scriptisto/pkg/buildspec"
	"github.com/scriptisto/scriptisto/pkg/buildsys"
	"github.com/scriptisto/scriptisto/pkg/scriptlog"
)

// Builder is implemented by buildsys.Service
type Builder interface {
	Perform(ctx context.Context, mode buildsys.Mode, scriptPath string, showLogs bool) (*buildspec.BuildSpec, string, error)
}

var _ Builder = (*buildsys.Service)(nil)

// Run builds the script if necessary and replaces the current process with it. On success it
// only returns if replacer does.
func Run(ctx context.Context, builder Builder, replacer Replacer, scriptPath string, args []string, lookup LookupFunc) error {
	mode, err := ModeFromEnv(lookup)
	if err != nil {
		return err
	}

	spec, cacheDir, err := builder.Perform(ctx, mode, scriptPath, ShowLogsFromEnv(lookup))
	if err != nil {
		return &BuildError{Script: scriptPath, Err: err}
	}

	launch, err := Resolve(spec.TargetBin, spec.TargetInterpreter, cacheDir, args)
	if err != nil {
		return err
	}

	scriptlog.Log(ctx).Debug().
		Str("binary", launch.Binary).
		Strs("argv", launch.Argv).
		Msg("running exec")

	return replacer.Replace(launch, cacheDir)
}
