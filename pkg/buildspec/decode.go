package buildspec

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// schema types every recognized key. The struct stays open so that unknown keys are ignored. Plain
// scalars are accepted wherever a string is expected and are decoded with their literal text.
const schema = `
#Scalar: string | number | bool

script_src?:           #Scalar
build_cmd?:            #Scalar | null
build_once_cmd?:       #Scalar | null
target_bin?:           #Scalar | null
target_interpreter?:   #Scalar | null
replace_shebang_with?: #Scalar | null
files?: [...{
	path:    #Scalar
	content: #Scalar
}] | null
deps?:            [...#Scalar] | null
extra_src_paths?: [...#Scalar] | null
docker_build?: {
	dockerfile?:    #Scalar | null
	src_mount_dir?: #Scalar | null
	extra_args?:    [...#Scalar] | null
} | null
build_in_script_dir?: bool | null
`

type rawSpec struct {
	ScriptSrc          *string         `yaml:"script_src"`
	BuildCmd           *string         `yaml:"build_cmd"`
	BuildOnceCmd       *string         `yaml:"build_once_cmd"`
	TargetBin          *string         `yaml:"target_bin"`
	TargetInterpreter  *string         `yaml:"target_interpreter"`
	ReplaceShebangWith *string         `yaml:"replace_shebang_with"`
	Files              []File          `yaml:"files"`
	Deps               []string        `yaml:"deps"`
	DockerBuild        *rawDockerBuild `yaml:"docker_build"`
	ExtraSrcPaths      []string        `yaml:"extra_src_paths"`
	BuildInScriptDir   *bool           `yaml:"build_in_script_dir"`
}

type rawDockerBuild struct {
	Dockerfile  *string  `yaml:"dockerfile"`
	SrcMountDir *string  `yaml:"src_mount_dir"`
	ExtraArgs   []string `yaml:"extra_args"`
}

// Decode parses a configuration document, validates it and fills in the defaults.
func Decode(doc string) (*BuildSpec, error) {
	var generic interface{}
	err := yaml.Unmarshal([]byte(doc), &generic)
	if err != nil {
		return nil, &ConfigError{Text: doc, Err: err}
	}

	if generic == nil {
		generic = map[string]interface{}{}
	}

	fields, ok := generic.(map[string]interface{})
	if !ok {
		return nil, &ConfigError{Text: doc, Err: eris.New("the config must be a mapping with string keys")}
	}

	err = validate(fields)
	if err != nil {
		return nil, &ConfigError{Text: doc, Err: err}
	}

	if _, ok := fields["script_src"]; !ok {
		return nil, &ConfigError{Text: doc, Err: eris.New("missing required field script_src")}
	}

	var raw rawSpec
	err = yaml.Unmarshal([]byte(doc), &raw)
	if err != nil {
		return nil, &ConfigError{Text: doc, Err: err}
	}

	if raw.ScriptSrc == nil || *raw.ScriptSrc == "" {
		return nil, &ConfigError{Text: doc, Err: eris.New("script_src must not be empty")}
	}

	return raw.toSpec(), nil
}

func validate(fields map[string]interface{}) error {
	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(schema, cue.Filename("buildspec.cue"))
	if err := schemaValue.Err(); err != nil {
		return eris.Wrap(err, "invalid config schema")
	}

	value := ctx.Encode(fields)
	if err := value.Err(); err != nil {
		return eris.New(cueerrors.Details(err, nil))
	}

	err := schemaValue.Unify(value).Validate(cue.Concrete(true))
	if err != nil {
		return eris.New(cueerrors.Details(err, nil))
	}

	return nil
}

func (r *rawSpec) toSpec() *BuildSpec {
	return &BuildSpec{
		ScriptSrc:          *r.ScriptSrc,
		BuildCmd:           stringOr(r.BuildCmd, ""),
		BuildOnceCmd:       stringOr(r.BuildOnceCmd, ""),
		TargetBin:          stringOr(r.TargetBin, DefaultTargetBin),
		TargetInterpreter:  stringOr(r.TargetInterpreter, ""),
		ReplaceShebangWith: stringOr(r.ReplaceShebangWith, DefaultReplaceShebangWith),
		Files:              listOr(r.Files),
		Deps:               listOr(r.Deps),
		DockerBuild:        r.DockerBuild.toSpec(),
		ExtraSrcPaths:      listOr(r.ExtraSrcPaths),
		BuildInScriptDir:   r.BuildInScriptDir != nil && *r.BuildInScriptDir,
	}
}

func (r *rawDockerBuild) toSpec() *DockerBuild {
	if r == nil {
		return nil
	}

	return &DockerBuild{
		Dockerfile:  stringOr(r.Dockerfile, DefaultDockerfile),
		SrcMountDir: stringOr(r.SrcMountDir, DefaultSrcMountDir),
		ExtraArgs:   listOr(r.ExtraArgs),
	}
}

func stringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}

	return *value
}

func listOr[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
