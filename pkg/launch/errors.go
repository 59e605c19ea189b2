package launch

import "fmt"

// BuildError wraps any failure of the build service for a script
type BuildError struct {
	Script string
	Err    error
}

var _ error = (*BuildError)(nil)

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed for %q: %v", e.Script, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ArtifactError is returned when the built target can't be found in the cache directory
type ArtifactError struct {
	Path string
	Err  error
}

var _ error = (*ArtifactError)(nil)

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact not found: %s (did build_cmd produce target_bin?): %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// ExecError is returned when the OS refused to run the target binary
type ExecError struct {
	Binary string
	Err    error
}

var _ error = (*ExecError)(nil)

func (e *ExecError) Error() string {
	return fmt.Sprintf("cannot execute target binary %q: %v", e.Binary, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// BuildModeError reports an unknown SCRIPTISTO_BUILD value
type BuildModeError struct {
	Value string
	Err   error
}

var _ error = (*BuildModeError)(nil)

func (e *BuildModeError) Error() string {
	return fmt.Sprintf("invalid %s=%q: %v", BuildModeEnv, e.Value, e.Err)
}

func (e *BuildModeError) Unwrap() error {
	return e.Err
}
