package buildsys

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInfoAndGet(t *testing.T) {
	svc := newTestService(t)
	script := writeScript(t, shellScript)
	cacheDir := CachePath(svc.CacheRoot, script)

	items, err := svc.Info(script)
	require.NoError(t, err)
	require.Equal(t, []InfoItem{{Name: InfoCachePath, Value: cacheDir}}, items)

	_, _, err = svc.Perform(context.Background(), ModeDefault, script, false)
	require.NoError(t, err)

	items, err = svc.Info(script)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, InfoBuiltAt, items[1].Name)
	_, err = time.Parse(time.RFC3339, items[1].Value)
	require.NoError(t, err)

	value, err := svc.Get(InfoCachePath, script)
	require.NoError(t, err)
	require.Equal(t, cacheDir, value)

	_, err = svc.Get("docker_image", script)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Available items: cache_path, built_at")
}

func TestInfoDockerImage(t *testing.T) {
	svc := newTestService(t)
	script := writeScript(t, dockerScript)

	value, err := svc.Get(InfoDockerImage, script)
	require.NoError(t, err)
	require.Equal(t, ImageName(script), value)
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	script := writeScript(t, shellScript)

	_, cacheDir, err := svc.Perform(ctx, ModeDefault, script, false)
	require.NoError(t, err)
	require.DirExists(t, cacheDir)

	require.NoError(t, svc.Clean(ctx, script))
	require.NoDirExists(t, cacheDir)

	// cleaning twice is fine
	require.NoError(t, svc.Clean(ctx, script))
}

func TestCleanRemovesImage(t *testing.T) {
	fake := newFakeDockerClient()
	svc := newTestService(t)
	svc.Docker = func() (DockerClient, error) { return fake, nil }

	script := writeScript(t, dockerScript)
	fake.images[ImageName(script)] = true

	require.NoError(t, svc.Clean(context.Background(), script))
	require.Equal(t, []string{ImageName(script)}, fake.removedImgs)

	require.NoError(t, svc.Clean(context.Background(), script))
}
