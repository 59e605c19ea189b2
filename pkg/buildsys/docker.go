package buildsys

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rotisserie/eris"
	"github.com/ulikunitz/xz"

	"github.com/scriptisto/scriptisto/pkg/buildspec"
)

// ImageName returns the name of the Docker image used to build the given script
func ImageName(absScript string) string {
	sum := sha256.Sum256([]byte(absScript))
	return "scriptisto-" + hex.EncodeToString(sum[:])[:16]
}

type dockerJob struct {
	Spec         *buildspec.BuildSpec
	Image        string
	CacheDir     string
	ForceImage   bool
	RunBuildOnce bool
	Output       io.Writer
}

func runDockerBuild(ctx context.Context, cli DockerClient, job dockerJob) error {
	docker := job.Spec.DockerBuild
	args, err := parseRunArgs(docker.ExtraArgs)
	if err != nil {
		return err
	}

	err = ensureImage(ctx, cli, job)
	if err != nil {
		return err
	}

	if job.RunBuildOnce {
		err = runInContainer(ctx, cli, job, args, "build_once_cmd", job.Spec.BuildOnceCmd)
		if err != nil {
			return err
		}
	}

	if job.Spec.BuildCmd != "" {
		err = runInContainer(ctx, cli, job, args, "build_cmd", job.Spec.BuildCmd)
		if err != nil {
			return err
		}
	}

	return nil
}

func ensureImage(ctx context.Context, cli DockerClient, job dockerJob) error {
	if !job.ForceImage {
		_, err := cli.ImageInspect(ctx, job.Image)
		if err == nil {
			log(ctx).Debug().Str("image", job.Image).Msg("reusing existing image")
			return nil
		}

		if !cerrdefs.IsNotFound(err) {
			return eris.Wrapf(err, "failed to inspect image %s", job.Image)
		}
	}

	dockerfile := job.Spec.DockerBuild.Dockerfile
	_, err := os.Stat(filepath.Join(job.CacheDir, dockerfile))
	if err != nil {
		return eris.Wrapf(err, "could not find the Dockerfile %s in the cache directory, add it to files", dockerfile)
	}

	reader, writer := io.Pipe()
	go func() {
		writer.CloseWithError(writeBuildContext(writer, job.CacheDir))
	}()
	defer reader.Close()

	log(ctx).Debug().Str("image", job.Image).Msg("building image")
	resp, err := cli.ImageBuild(ctx, reader, build.ImageBuildOptions{
		Tags:        []string{job.Image},
		Dockerfile:  filepath.ToSlash(dockerfile),
		Remove:      true,
		ForceRemove: true,
		PullParent:  job.ForceImage,
		NoCache:     job.ForceImage,
	})
	if err != nil {
		return eris.Wrapf(err, "failed to build image %s", job.Image)
	}
	defer resp.Body.Close()

	err = jsonmessage.DisplayJSONMessagesStream(resp.Body, job.Output, 0, false, nil)
	if err != nil {
		return eris.Wrapf(err, "failed to build image %s", job.Image)
	}

	return nil
}

// writeBuildContext streams the cache directory as an xz compressed tarball.
func writeBuildContext(out io.Writer, dir string) error {
	compressor, err := xz.NewWriter(out)
	if err != nil {
		return eris.Wrap(err, "failed to initialize xz compressor")
	}

	archive := tar.NewWriter(compressor)
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		if rel == "." || rel == MetadataFile {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		err = archive.WriteHeader(header)
		if err != nil || info.IsDir() {
			return err
		}

		handle, err := os.Open(path)
		if err != nil {
			return err
		}
		defer handle.Close()

		_, err = io.Copy(archive, handle)
		return err
	})
	if err != nil {
		return eris.Wrap(err, "failed to pack build context")
	}

	err = archive.Close()
	if err != nil {
		return eris.Wrap(err, "failed to finish build context")
	}

	return compressor.Close()
}

func runInContainer(ctx context.Context, cli DockerClient, job dockerJob, args runArgs, name, command string) error {
	mountDir := job.Spec.DockerBuild.SrcMountDir
	config := &container.Config{
		Image:        job.Image,
		Cmd:          []string{"sh", "-c", command},
		WorkingDir:   mountDir,
		Env:          []string{CacheDirEnv + "=" + mountDir},
		AttachStdout: true,
		AttachStderr: true,
	}
	hostConfig := &container.HostConfig{
		Binds: []string{job.CacheDir + ":" + mountDir},
	}
	args.apply(config, hostConfig)

	resp, err := cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return eris.Wrapf(err, "failed to create container for %s", name)
	}
	defer func() {
		_ = cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}()

	statusCh, errCh := cli.ContainerWait(ctx, resp.ID, container.WaitConditionNextExit)

	log(ctx).Debug().Str("step", name).Str("container", resp.ID).Msg(command)
	err = cli.ContainerStart(ctx, resp.ID, container.StartOptions{})
	if err != nil {
		return eris.Wrapf(err, "failed to start container for %s", name)
	}

	var status container.WaitResponse
	select {
	case err := <-errCh:
		return eris.Wrapf(err, "failed to wait for %s", name)
	case status = <-statusCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	logs, err := cli.ContainerLogs(ctx, resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return eris.Wrapf(err, "failed to fetch logs of %s", name)
	}
	defer logs.Close()

	_, err = stdcopy.StdCopy(job.Output, job.Output, logs)
	if err != nil {
		return eris.Wrapf(err, "failed to read logs of %s", name)
	}

	if status.Error != nil {
		return eris.Errorf("%s %q failed: %s", name, command, status.Error.Message)
	}

	if status.StatusCode != 0 {
		return eris.Errorf("%s %q exited with status %d", name, command, status.StatusCode)
	}

	return nil
}

// removeImage deletes the build image of a script; a missing image is not an error.
func removeImage(ctx context.Context, cli DockerClient, name string) error {
	_, err := cli.ImageRemove(ctx, name, image.RemoveOptions{Force: true, PruneChildren: true})
	if err != nil && !cerrdefs.IsNotFound(err) {
		return eris.Wrapf(err, "failed to remove image %s", name)
	}

	return nil
}
