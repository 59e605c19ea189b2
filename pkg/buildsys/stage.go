package buildsys

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scriptisto/scriptisto/pkg/buildspec"
)

// stageFiles writes the virtual files and the extra source paths of spec into cacheDir. It reports
// whether any file had to be (re)written.
func stageFiles(ctx context.Context, spec *buildspec.BuildSpec, scriptDir, cacheDir string) (bool, error) {
	changed := false

	for _, file := range spec.Files {
		dest, err := cacheFilePath(cacheDir, file.Path)
		if err != nil {
			return false, err
		}

		written, err := writeIfChanged(dest, []byte(file.Content), 0o644)
		if err != nil {
			return false, err
		}
		if written {
			log(ctx).Debug().Str("path", dest).Msg("staged file")
		}
		changed = changed || written
	}

	for _, item := range spec.ExtraSrcPaths {
		written, err := stageExtraPath(ctx, item, scriptDir, cacheDir)
		if err != nil {
			return false, err
		}
		changed = changed || written
	}

	return changed, nil
}

// cacheFilePath resolves a relative path inside the cache directory and refuses anything that
// would end up outside of it.
func cacheFilePath(cacheDir, name string) (string, error) {
	if name == "" {
		return "", eris.New("found a file without a path")
	}

	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", eris.Errorf("file path %s must be relative", name)
	}

	dest := filepath.Join(cacheDir, name)
	rel, err := filepath.Rel(cacheDir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", eris.Errorf("file path %s points outside of the cache directory", name)
	}

	if rel == "." || rel == MetadataFile {
		return "", eris.Errorf("file path %s is reserved", name)
	}

	return dest, nil
}

func writeIfChanged(dest string, content []byte, mode os.FileMode) (bool, error) {
	existing, err := os.ReadFile(dest)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	if err != nil && !eris.Is(err, os.ErrNotExist) {
		return false, eris.Wrapf(err, "failed to read %s", dest)
	}

	err = os.MkdirAll(filepath.Dir(dest), 0o755)
	if err != nil {
		return false, eris.Wrapf(err, "failed to create directory for %s", dest)
	}

	err = os.WriteFile(dest, content, mode)
	if err != nil {
		return false, eris.Wrapf(err, "failed to write %s", dest)
	}

	return true, nil
}

// stageExtraPath copies a file or a directory tree (relative to the script's directory) into the
// cache directory. The copy keeps the path as written in the config unless it leaves the script's
// directory, in which case only the last path element is kept.
func stageExtraPath(ctx context.Context, item, scriptDir, cacheDir string) (bool, error) {
	src := item
	if !filepath.IsAbs(src) {
		src = filepath.Join(scriptDir, src)
	}

	info, err := os.Stat(src)
	if err != nil {
		return false, eris.Wrapf(err, "could not find extra source path %s", item)
	}

	destName := filepath.Clean(item)
	if filepath.IsAbs(destName) || destName == ".." || strings.HasPrefix(destName, ".."+string(filepath.Separator)) {
		destName = filepath.Base(destName)
	}

	dest, err := cacheFilePath(cacheDir, destName)
	if err != nil {
		return false, err
	}

	if !info.IsDir() {
		return copyIfChanged(ctx, src, dest, info.Mode())
	}

	changed := false
	err = filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		entryInfo, err := entry.Info()
		if err != nil {
			return err
		}

		written, err := copyIfChanged(ctx, path, filepath.Join(dest, rel), entryInfo.Mode())
		changed = changed || written
		return err
	})
	if err != nil {
		return false, eris.Wrapf(err, "failed to copy extra source path %s", item)
	}

	return changed, nil
}

func copyIfChanged(ctx context.Context, src, dest string, mode os.FileMode) (bool, error) {
	content, err := os.ReadFile(src)
	if err != nil {
		return false, eris.Wrapf(err, "failed to read %s", src)
	}

	written, err := writeIfChanged(dest, content, mode.Perm())
	if written {
		log(ctx).Debug().Str("path", dest).Str("source", src).Msg("copied extra source")
	}
	return written, err
}
