//go:build !unix

package launch

import (
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
)

// Exec runs the launched program as a child process and exits with its status once it's done.
// Platforms without execve can't replace the running process so stdio is inherited instead.
func Exec(launch Launch, cacheDir string) error {
	binary, err := lookPath(launch.Binary)
	if err != nil {
		return &ExecError{Binary: launch.Binary, Err: err}
	}

	cmd := exec.Command(binary)
	cmd.Args = launch.Argv
	cmd.Env = execEnv(os.Environ(), cacheDir)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Start()
	if err != nil {
		return &ExecError{Binary: launch.Binary, Err: err}
	}

	err = cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if eris.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		return &ExecError{Binary: launch.Binary, Err: err}
	}

	os.Exit(0)
	return nil
}
