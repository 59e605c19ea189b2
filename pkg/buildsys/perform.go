package buildsys

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/term"

	"github.com/scriptisto/scriptisto/pkg/buildspec"
)

// CacheDirEnv is set for build commands and for the launched program. It contains the absolute path of
// the script's cache directory.
const CacheDirEnv = "SCRIPTISTO_CACHE_DIR"

// Service builds scripts inside their cache directories
type Service struct {
	// CacheRoot contains the bin/ directory with all script caches
	CacheRoot string
	// Tool is the path of the running executable, used for the portable shell helpers
	Tool string
	// Stderr receives build logs and the progress spinner
	Stderr io.Writer
	// Interactive enables the progress spinner while the build output is hidden
	Interactive bool
	// Docker creates a client for the Docker backend. It's only called for scripts with docker_build.
	Docker func() (DockerClient, error)

	now func() time.Time
}

// NewService returns a Service which uses the user's cache directory
func NewService() (*Service, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, eris.Wrap(err, "failed to determine the user cache directory")
	}

	tool, err := os.Executable()
	if err != nil {
		tool = ""
	}

	return &Service{
		CacheRoot:   filepath.Join(cacheDir, "scriptisto"),
		Tool:        tool,
		Stderr:      os.Stderr,
		Interactive: term.IsTerminal(int(os.Stderr.Fd())),
		Docker:      NewDockerClient,
	}, nil
}

func (s *Service) timeNow() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// ScriptCachePath returns the cache directory of a script.
func (s *Service) ScriptCachePath(scriptPath string) (string, error) {
	absScript, err := filepath.Abs(scriptPath)
	if err != nil {
		return "", eris.Wrapf(err, "failed to resolve %s", scriptPath)
	}

	return CachePath(s.CacheRoot, absScript), nil
}

func readSpec(scriptPath string) (*buildspec.BuildSpec, string, error) {
	absScript, err := filepath.Abs(scriptPath)
	if err != nil {
		return nil, "", eris.Wrapf(err, "failed to resolve %s", scriptPath)
	}

	content, err := os.ReadFile(absScript)
	if err != nil {
		return nil, "", eris.Wrapf(err, "cannot read script %s", absScript)
	}

	spec, err := buildspec.Parse(content)
	if err != nil {
		return nil, "", err
	}

	return spec, absScript, nil
}

// Perform parses the script, stages its sources in the cache directory and builds it if necessary.
// It returns the parsed spec together with the cache directory.
func (s *Service) Perform(ctx context.Context, mode Mode, scriptPath string, showLogs bool) (*buildspec.BuildSpec, string, error) {
	spec, absScript, err := readSpec(scriptPath)
	if err != nil {
		return nil, "", err
	}

	cacheDir := CachePath(s.CacheRoot, absScript)
	err = os.MkdirAll(cacheDir, 0o755)
	if err != nil {
		return nil, "", eris.Wrapf(err, "failed to create cache directory %s", cacheDir)
	}

	store, err := OpenStore(ctx, cacheDir)
	if err != nil {
		return nil, "", err
	}
	defer store.Close()

	meta, err := store.Load()
	if err != nil {
		return nil, "", err
	}

	changed, err := stageFiles(ctx, spec, filepath.Dir(absScript), cacheDir)
	if err != nil {
		return nil, "", eris.Wrap(err, "failed to stage sources")
	}

	if !s.needsBuild(mode, meta, changed, spec, cacheDir) {
		log(ctx).Debug().Str("cache", cacheDir).Msg("build is up to date")
		return spec, cacheDir, nil
	}

	// a failed build must not leave an older artifact marked as current
	meta.BuiltAt = time.Time{}
	err = store.Save(meta)
	if err != nil {
		return nil, "", eris.Wrap(err, "failed to save build metadata")
	}

	runBuildOnce := spec.BuildOnceCmd != "" &&
		(mode == ModeFull || meta.BuildOnceAt.IsZero() || meta.BuildOnceCmd != spec.BuildOnceCmd)

	out := newBuildOutput(s.Stderr, showLogs, s.Interactive, "building "+filepath.Base(absScript))
	if spec.DockerBuild != nil {
		err = s.buildDocker(ctx, spec, absScript, cacheDir, mode, runBuildOnce, out.writer)
		meta.DockerImage = ImageName(absScript)
	} else {
		err = s.buildLocal(ctx, spec, absScript, cacheDir, runBuildOnce, out.writer)
	}
	out.Finish()

	if err != nil {
		if captured := out.Captured(); captured != "" {
			return nil, "", eris.Wrapf(err, "build output:\n%s", captured)
		}
		return nil, "", err
	}

	now := s.timeNow()
	meta.ScriptPath = absScript
	meta.BuiltAt = now
	meta.ConfigHash = ConfigHash(spec)
	if runBuildOnce {
		meta.BuildOnceAt = now
		meta.BuildOnceCmd = spec.BuildOnceCmd
	}

	err = store.Save(meta)
	if err != nil {
		return nil, "", eris.Wrap(err, "failed to save build metadata")
	}

	return spec, cacheDir, nil
}

func (s *Service) needsBuild(mode Mode, meta Metadata, changed bool, spec *buildspec.BuildSpec, cacheDir string) bool {
	if mode != ModeDefault || changed || meta.BuiltAt.IsZero() {
		return true
	}

	if meta.ConfigHash != ConfigHash(spec) {
		return true
	}

	if spec.BuildOnceCmd != "" && spec.BuildOnceCmd != meta.BuildOnceCmd {
		return true
	}

	_, err := os.Stat(TargetPath(cacheDir, spec.TargetBin))
	return err != nil
}

// TargetPath joins the cache directory and target_bin; an absolute target_bin is used as-is.
func TargetPath(cacheDir, targetBin string) string {
	if filepath.IsAbs(targetBin) {
		return targetBin
	}

	return filepath.Join(cacheDir, targetBin)
}

func (s *Service) buildLocal(ctx context.Context, spec *buildspec.BuildSpec, absScript, cacheDir string, runBuildOnce bool, out io.Writer) error {
	dir := cacheDir
	if spec.BuildInScriptDir {
		dir = filepath.Dir(absScript)
	}

	env := buildEnv(map[string]string{CacheDirEnv: cacheDir})
	job := shellJob{
		Dir:    dir,
		Env:    env,
		Stdout: out,
		Stderr: out,
		Tool:   s.Tool,
	}

	if runBuildOnce {
		job.Name = "build_once_cmd"
		job.Command = spec.BuildOnceCmd
		err := runShell(ctx, job)
		if err != nil {
			return err
		}
	}

	if spec.BuildCmd != "" {
		job.Name = "build_cmd"
		job.Command = spec.BuildCmd
		return runShell(ctx, job)
	}

	return nil
}

func (s *Service) buildDocker(ctx context.Context, spec *buildspec.BuildSpec, absScript, cacheDir string, mode Mode, runBuildOnce bool, out io.Writer) error {
	if s.Docker == nil {
		return eris.New("docker_build is configured but no Docker client is available")
	}

	cli, err := s.Docker()
	if err != nil {
		return err
	}
	defer cli.Close()

	return runDockerBuild(ctx, cli, dockerJob{
		Spec:         spec,
		Image:        ImageName(absScript),
		CacheDir:     cacheDir,
		ForceImage:   mode == ModeFull,
		RunBuildOnce: runBuildOnce,
		Output:       out,
	})
}
