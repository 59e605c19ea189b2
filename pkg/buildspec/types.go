package buildspec

// Default values applied by Decode when the embedded configuration omits a key.
const (
	DefaultTargetBin          = "./script"
	DefaultReplaceShebangWith = ""
	DefaultDockerfile         = "Dockerfile"
	DefaultSrcMountDir        = "/src"
)

// BuildSpec contains the embedded configuration of a script. After Parse, the last entry in Files
// always holds the reconstructed script body under the path ScriptSrc.
type BuildSpec struct {
	ScriptSrc          string
	BuildCmd           string
	BuildOnceCmd       string
	TargetBin          string
	TargetInterpreter  string
	ReplaceShebangWith string
	Files              []File
	Deps               []string
	DockerBuild        *DockerBuild
	ExtraSrcPaths      []string
	BuildInScriptDir   bool

	// Config is the embedded configuration document as it was extracted from the script
	Config string
}

// File is a virtual source file which is staged into the cache directory before building
type File struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// DockerBuild configures the containerized build backend
type DockerBuild struct {
	Dockerfile  string
	SrcMountDir string
	ExtraArgs   []string
}

// ScriptFile returns the staged script body.
func (s *BuildSpec) ScriptFile() File {
	for idx := len(s.Files) - 1; idx >= 0; idx-- {
		if s.Files[idx].Path == s.ScriptSrc {
			return s.Files[idx]
		}
	}

	return File{Path: s.ScriptSrc}
}
