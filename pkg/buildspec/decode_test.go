package buildspec

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	spec, err := Decode("script_src: main.c")
	require.NoError(t, err)

	require.Equal(t, "main.c", spec.ScriptSrc)
	require.Equal(t, DefaultTargetBin, spec.TargetBin)
	require.Equal(t, "./script", spec.TargetBin)
	require.Equal(t, "", spec.ReplaceShebangWith)
	require.Equal(t, "", spec.BuildCmd)
	require.Equal(t, "", spec.BuildOnceCmd)
	require.Equal(t, "", spec.TargetInterpreter)
	require.NotNil(t, spec.Files)
	require.Empty(t, spec.Files)
	require.NotNil(t, spec.Deps)
	require.Empty(t, spec.Deps)
	require.NotNil(t, spec.ExtraSrcPaths)
	require.Empty(t, spec.ExtraSrcPaths)
	require.Nil(t, spec.DockerBuild)
	require.False(t, spec.BuildInScriptDir)
}

func TestDecodeAllFields(t *testing.T) {
	doc := `
script_src: src/main.rs
build_cmd: cargo build --release
build_once_cmd: cargo fetch
target_bin: ./target/release/script
target_interpreter: node --experimental
replace_shebang_with: "// nothing"
files:
  - path: Cargo.toml
    content: |
      [package]
      name = "script"
deps: ["serde"]
extra_src_paths: [../lib, helper.rs]
docker_build:
  dockerfile: Dockerfile.build
  extra_args: [-e, FOO=bar]
build_in_script_dir: true
`
	spec, err := Decode(doc)
	require.NoError(t, err)

	require.Equal(t, "src/main.rs", spec.ScriptSrc)
	require.Equal(t, "cargo build --release", spec.BuildCmd)
	require.Equal(t, "cargo fetch", spec.BuildOnceCmd)
	require.Equal(t, "./target/release/script", spec.TargetBin)
	require.Equal(t, "node --experimental", spec.TargetInterpreter)
	require.Equal(t, "// nothing", spec.ReplaceShebangWith)
	require.Equal(t, []File{{Path: "Cargo.toml", Content: "[package]\nname = \"script\"\n"}}, spec.Files)
	require.Equal(t, []string{"serde"}, spec.Deps)
	require.Equal(t, []string{"../lib", "helper.rs"}, spec.ExtraSrcPaths)
	require.Equal(t, &DockerBuild{
		Dockerfile:  "Dockerfile.build",
		SrcMountDir: DefaultSrcMountDir,
		ExtraArgs:   []string{"-e", "FOO=bar"},
	}, spec.DockerBuild)
	require.True(t, spec.BuildInScriptDir)
}

func TestDecodeNullValuesUseDefaults(t *testing.T) {
	spec, err := Decode("script_src: a.go\ntarget_bin:\nfiles:\ndocker_build:\n")
	require.NoError(t, err)
	require.Equal(t, DefaultTargetBin, spec.TargetBin)
	require.Empty(t, spec.Files)
	require.Nil(t, spec.DockerBuild)
}

func TestDecodeEmptyDockerBuild(t *testing.T) {
	spec, err := Decode("script_src: a.c\ndocker_build: {}")
	require.NoError(t, err)
	require.Equal(t, &DockerBuild{
		Dockerfile:  DefaultDockerfile,
		SrcMountDir: DefaultSrcMountDir,
		ExtraArgs:   []string{},
	}, spec.DockerBuild)
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	spec, err := Decode("script_src: a.c\nsomething_else: 42")
	require.NoError(t, err)
	require.Equal(t, "a.c", spec.ScriptSrc)
}

func TestDecodeScalarsAsStrings(t *testing.T) {
	doc := `script_src: 42
target_bin: 1.0
build_cmd: true
deps: [1, 2.50]
files:
  - path: VERSION
    content: 1.0
docker_build:
  extra_args: [--privileged, 8080]`

	spec, err := Decode(doc)
	require.NoError(t, err)

	require.Equal(t, "42", spec.ScriptSrc)
	require.Equal(t, "1.0", spec.TargetBin)
	require.Equal(t, "true", spec.BuildCmd)
	require.Equal(t, []string{"1", "2.50"}, spec.Deps)
	require.Equal(t, []File{{Path: "VERSION", Content: "1.0"}}, spec.Files)
	require.Equal(t, []string{"--privileged", "8080"}, spec.DockerBuild.ExtraArgs)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"missing script_src", "build_cmd: make"},
		{"empty script_src", "script_src: ''"},
		{"malformed yaml", "script_src: [unclosed"},
		{"not a mapping", "- a\n- b"},
		{"wrong scalar type", "script_src: a.c\nbuild_in_script_dir: maybe"},
		{"wrong list type", "script_src: a.c\ndeps: main"},
		{"wrong file entry", "script_src: a.c\nfiles: [{path: x}]"},
		{"script_src not a string", "script_src: [a, b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.doc)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, eris.As(err, &cfgErr))
			require.Equal(t, tt.doc, cfgErr.Text)
			require.Contains(t, cfgErr.Error(), "cannot parse config YAML")
		})
	}
}
