package buildsys

import (
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
)

// runArgs holds the supported subset of `docker run` flags that can be passed through extra_args
type runArgs struct {
	Env        []string
	Volumes    []string
	Network    string
	User       string
	Privileged bool
	AddHosts   []string
}

func parseRunArgs(args []string) (runArgs, error) {
	var result runArgs

	flags := pflag.NewFlagSet("extra_args", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringArrayVarP(&result.Env, "env", "e", nil, "set environment variables")
	flags.StringArrayVarP(&result.Volumes, "volume", "v", nil, "bind mount a volume")
	flags.StringVar(&result.Network, "network", "", "connect the container to a network")
	flags.StringVarP(&result.User, "user", "u", "", "username or UID")
	flags.BoolVar(&result.Privileged, "privileged", false, "give extended privileges to the container")
	flags.StringArrayVar(&result.AddHosts, "add-host", nil, "add a custom host-to-IP mapping")

	err := flags.Parse(args)
	if err != nil {
		return result, eris.Wrapf(err, "unsupported docker_build.extra_args %q", args)
	}

	if flags.NArg() > 0 {
		return result, eris.Errorf("unexpected positional values %q in docker_build.extra_args", flags.Args())
	}

	return result, nil
}

func (a runArgs) apply(config *container.Config, hostConfig *container.HostConfig) {
	config.Env = append(config.Env, a.Env...)
	if a.User != "" {
		config.User = a.User
	}

	hostConfig.Binds = append(hostConfig.Binds, a.Volumes...)
	hostConfig.ExtraHosts = append(hostConfig.ExtraHosts, a.AddHosts...)
	hostConfig.Privileged = a.Privileged
	if a.Network != "" {
		hostConfig.NetworkMode = container.NetworkMode(a.Network)
	}
}
