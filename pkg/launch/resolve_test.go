package launch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newCacheDir(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script"), []byte("bin"), 0o755))
	return dir
}

func TestResolveDirect(t *testing.T) {
	cacheDir := newCacheDir(t)
	target := filepath.Join(cacheDir, "script")

	launch, err := Resolve("./script", "", cacheDir, []string{"a b", "--flag"})
	require.NoError(t, err)
	require.Equal(t, target, launch.Binary)
	require.Equal(t, []string{target, "a b", "--flag"}, launch.Argv)
}

func TestResolveInterpreter(t *testing.T) {
	cacheDir := newCacheDir(t)
	target := filepath.Join(cacheDir, "script")

	launch, err := Resolve("./script", "node --experimental", cacheDir, []string{"x"})
	require.NoError(t, err)
	require.Equal(t, "node", launch.Binary)
	require.Equal(t, []string{"node", "--experimental", target, "x"}, launch.Argv)

	launch, err = Resolve("./script", "  java\t-cp  . ", cacheDir, nil)
	require.NoError(t, err)
	require.Equal(t, "java", launch.Binary)
	require.Equal(t, []string{"java", "-cp", ".", target}, launch.Argv)
}

func TestResolveBlankInterpreterIsAbsent(t *testing.T) {
	cacheDir := newCacheDir(t)

	absent, err := Resolve("./script", "", cacheDir, []string{"1"})
	require.NoError(t, err)

	for _, interpreter := range []string{" ", "\t \n"} {
		blank, err := Resolve("./script", interpreter, cacheDir, []string{"1"})
		require.NoError(t, err)
		require.Equal(t, absent, blank)
	}
}

func TestResolveFollowsSymlinks(t *testing.T) {
	cacheDir := newCacheDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cacheDir, "target", "release"), 0o755))
	artifact := filepath.Join(cacheDir, "target", "release", "app")
	require.NoError(t, os.WriteFile(artifact, []byte("bin"), 0o755))

	link := filepath.Join(cacheDir, "app")
	if err := os.Symlink(artifact, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	launch, err := Resolve("./app", "", cacheDir, nil)
	require.NoError(t, err)
	require.Equal(t, artifact, launch.Binary)
}

func TestResolveMissingArtifact(t *testing.T) {
	cacheDir := t.TempDir()

	_, err := Resolve("./script", "", cacheDir, nil)
	var artifactErr *ArtifactError
	require.ErrorAs(t, err, &artifactErr)
	require.Equal(t, filepath.Join(cacheDir, "script"), artifactErr.Path)

	if err := os.Symlink(filepath.Join(cacheDir, "nowhere"), filepath.Join(cacheDir, "dangling")); err == nil {
		_, err = Resolve("./dangling", "", cacheDir, nil)
		require.ErrorAs(t, err, &artifactErr)
	}
}
