package launch

import (
	"path/filepath"
	"strings"

	"github.com/scriptisto/scriptisto/pkg/buildsys"
)

// Launch is the final command line of a script
type Launch struct {
	// Binary is the program to execute. It's searched in PATH if it doesn't contain a separator.
	Binary string
	// Argv includes Binary as its first element
	Argv []string
}

// Resolve computes the command line for a built script. It has no side effects besides reading
// the file system.
func Resolve(targetBin, targetInterpreter, cacheDir string, args []string) (Launch, error) {
	target := buildsys.TargetPath(cacheDir, targetBin)
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return Launch{}, &ArtifactError{Path: target, Err: err}
	}

	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return Launch{}, &ArtifactError{Path: target, Err: err}
	}

	interpreter := strings.Fields(targetInterpreter)

	var result Launch
	if len(interpreter) > 0 {
		result.Binary = interpreter[0]
		result.Argv = make([]string, 0, len(interpreter)+1+len(args))
		result.Argv = append(result.Argv, interpreter...)
		result.Argv = append(result.Argv, resolved)
	} else {
		result.Binary = resolved
		result.Argv = make([]string, 0, 1+len(args))
		result.Argv = append(result.Argv, resolved)
	}

	result.Argv = append(result.Argv, args...)
	return result, nil
}
