package launch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scriptisto/scriptisto/pkg/buildspec"
	"github.com/scriptisto/scriptisto/pkg/buildsys"
)

type fakeBuilder struct {
	spec     *buildspec.BuildSpec
	cacheDir string
	err      error

	calls    int
	mode     buildsys.Mode
	showLogs bool
}

func (b *fakeBuilder) Perform(ctx context.Context, mode buildsys.Mode, scriptPath string, showLogs bool) (*buildspec.BuildSpec, string, error) {
	b.calls++
	b.mode = mode
	b.showLogs = showLogs
	return b.spec, b.cacheDir, b.err
}

type recordingReplacer struct {
	launch   Launch
	cacheDir string
	err      error
}

func (r *recordingReplacer) Replace(launch Launch, cacheDir string) error {
	r.launch = launch
	r.cacheDir = cacheDir
	return r.err
}

func TestRun(t *testing.T) {
	cacheDir := newCacheDir(t)
	builder := &fakeBuilder{
		spec:     &buildspec.BuildSpec{TargetBin: "./script", TargetInterpreter: "python3 -u"},
		cacheDir: cacheDir,
	}
	replacer := &recordingReplacer{}

	env := map[string]string{BuildModeEnv: "source", BuildLogsEnv: ""}
	err := Run(context.Background(), builder, replacer, "/scripts/hello.py", []string{"--name", "x"}, envLookup(env))
	require.NoError(t, err)

	require.Equal(t, buildsys.ModeSource, builder.mode)
	require.True(t, builder.showLogs)
	require.Equal(t, cacheDir, replacer.cacheDir)
	require.Equal(t, "python3", replacer.launch.Binary)
	require.Equal(t, []string{"python3", "-u", filepath.Join(cacheDir, "script"), "--name", "x"}, replacer.launch.Argv)
}

func TestRunErrors(t *testing.T) {
	cacheDir := newCacheDir(t)
	ctx := context.Background()
	noEnv := envLookup(map[string]string{})

	// an invalid mode is reported before anything is built
	builder := &fakeBuilder{spec: &buildspec.BuildSpec{TargetBin: "./script"}, cacheDir: cacheDir}
	err := Run(ctx, builder, &recordingReplacer{}, "x", nil, envLookup(map[string]string{BuildModeEnv: "all"}))
	var modeErr *BuildModeError
	require.ErrorAs(t, err, &modeErr)
	require.Zero(t, builder.calls)

	builder = &fakeBuilder{err: errors.New("compiler exploded")}
	err = Run(ctx, builder, &recordingReplacer{}, "hello.c", nil, noEnv)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, "hello.c", buildErr.Script)
	require.Contains(t, err.Error(), "compiler exploded")

	builder = &fakeBuilder{spec: &buildspec.BuildSpec{TargetBin: "./missing"}, cacheDir: cacheDir}
	replacer := &recordingReplacer{}
	err = Run(ctx, builder, replacer, "hello.c", nil, noEnv)
	var artifactErr *ArtifactError
	require.ErrorAs(t, err, &artifactErr)
	require.Empty(t, replacer.launch.Binary)

	builder = &fakeBuilder{spec: &buildspec.BuildSpec{TargetBin: "./script"}, cacheDir: cacheDir}
	replacer = &recordingReplacer{err: &ExecError{Binary: "x", Err: errors.New("permission denied")}}
	err = Run(ctx, builder, replacer, "hello.c", nil, noEnv)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
}
