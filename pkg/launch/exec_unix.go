//go:build unix

package launch

import (
	"os"

	"golang.org/x/sys/unix"
)

// Exec replaces the current process with the launched program. It only returns on failure.
func Exec(launch Launch, cacheDir string) error {
	binary, err := lookPath(launch.Binary)
	if err != nil {
		return &ExecError{Binary: launch.Binary, Err: err}
	}

	err = unix.Exec(binary, launch.Argv, execEnv(os.Environ(), cacheDir))
	return &ExecError{Binary: launch.Binary, Err: err}
}
