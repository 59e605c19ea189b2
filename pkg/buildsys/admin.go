package buildsys

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// InfoItem is a single named value reported by `cache info`
type InfoItem struct {
	Name  string
	Value string
}

const (
	InfoCachePath   = "cache_path"
	InfoDockerImage = "docker_image"
	InfoBuiltAt     = "built_at"
)

// Info describes the cache of the given script. Items are returned in a stable order.
func (s *Service) Info(scriptPath string) ([]InfoItem, error) {
	spec, absScript, err := readSpec(scriptPath)
	if err != nil {
		return nil, err
	}

	cacheDir := CachePath(s.CacheRoot, absScript)
	items := []InfoItem{{Name: InfoCachePath, Value: cacheDir}}

	if spec.DockerBuild != nil {
		items = append(items, InfoItem{Name: InfoDockerImage, Value: ImageName(absScript)})
	}

	meta, err := ReadMetadata(cacheDir)
	if err != nil {
		return nil, err
	}

	if !meta.BuiltAt.IsZero() {
		items = append(items, InfoItem{Name: InfoBuiltAt, Value: meta.BuiltAt.Format(time.RFC3339)})
	}

	return items, nil
}

// Get returns a single item from Info.
func (s *Service) Get(name, scriptPath string) (string, error) {
	items, err := s.Info(scriptPath)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Name == name {
			return item.Value, nil
		}
		names = append(names, item.Name)
	}

	return "", eris.Errorf("unknown cache item %q. Available items: %s", name, strings.Join(names, ", "))
}

// Clean removes the cache directory of the given script together with its Docker image.
func (s *Service) Clean(ctx context.Context, scriptPath string) error {
	spec, absScript, err := readSpec(scriptPath)
	if err != nil {
		return err
	}

	cacheDir := CachePath(s.CacheRoot, absScript)
	if spec.DockerBuild != nil {
		if s.Docker == nil {
			return eris.New("docker_build is configured but no Docker client is available")
		}

		cli, err := s.Docker()
		if err != nil {
			return err
		}
		defer cli.Close()

		name := ImageName(absScript)
		log(ctx).Debug().Str("image", name).Msg("removing image")
		err = removeImage(ctx, cli, name)
		if err != nil {
			return err
		}
	}

	log(ctx).Debug().Str("cache", cacheDir).Msg("removing cache directory")
	err = os.RemoveAll(cacheDir)
	if err != nil {
		return eris.Wrapf(err, "failed to remove %s", cacheDir)
	}

	return nil
}
