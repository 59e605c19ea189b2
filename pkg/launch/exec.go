package launch

import (
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scriptisto/scriptisto/pkg/buildsys"
)

// Replacer takes over the current process with the launched program
type Replacer interface {
	Replace(launch Launch, cacheDir string) error
}

// ReplacerFunc adapts a function to the Replacer interface
type ReplacerFunc func(launch Launch, cacheDir string) error

func (f ReplacerFunc) Replace(launch Launch, cacheDir string) error {
	return f(launch, cacheDir)
}

// ProcessReplacer replaces the current process using Exec
var ProcessReplacer Replacer = ReplacerFunc(Exec)

// execEnv returns environ with exactly one SCRIPTISTO_CACHE_DIR entry pointing at cacheDir.
func execEnv(environ []string, cacheDir string) []string {
	result := make([]string, 0, len(environ)+1)
	for _, item := range environ {
		if !strings.HasPrefix(item, buildsys.CacheDirEnv+"=") {
			result = append(result, item)
		}
	}

	return append(result, buildsys.CacheDirEnv+"="+cacheDir)
}

// lookPath searches PATH like execvp: only names without a path separator are looked up and
// matches in relative PATH entries are used.
func lookPath(binary string) (string, error) {
	if strings.ContainsAny(binary, `/\`) {
		return binary, nil
	}

	path, err := exec.LookPath(binary)
	if err != nil && eris.Is(err, exec.ErrDot) {
		return path, nil
	}

	return path, err
}
