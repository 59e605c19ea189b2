package templates

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scriptisto/scriptisto/pkg/buildspec"
)

func newTestStore(t *testing.T) *Store {
	return &Store{
		Dir: filepath.Join(t.TempDir(), "templates"),
		Editor: func(ctx context.Context, file string) error {
			t.Fatalf("unexpected editor call for %s", file)
			return nil
		},
	}
}

func TestBuiltinTemplatesParse(t *testing.T) {
	names := builtinNames()
	require.ElementsMatch(t, []string{"c", "cpp", "go", "java", "rust", "typescript"}, names)

	for _, name := range names {
		content, ok := builtin(name)
		require.True(t, ok, name)

		spec, err := buildspec.Parse([]byte(content))
		require.NoError(t, err, name)
		require.NotEmpty(t, spec.ScriptSrc, name)
		require.NotEmpty(t, spec.BuildCmd, name)
		require.True(t, strings.HasPrefix(content, "#!/usr/bin/env scriptisto") || strings.HasPrefix(content, "///usr/bin/env scriptisto"), name)
	}
}

func TestBuiltinTemplateDetails(t *testing.T) {
	content, _ := builtin("rust")
	spec, err := buildspec.Parse([]byte(content))
	require.NoError(t, err)
	require.Equal(t, "./target/release/script", spec.TargetBin)
	require.Equal(t, "Cargo.toml", spec.Files[0].Path)
	require.Contains(t, spec.Files[0].Content, `name = "script"`)

	content, _ = builtin("java")
	spec, err = buildspec.Parse([]byte(content))
	require.NoError(t, err)
	require.Equal(t, "java -jar", spec.TargetInterpreter)
}

func TestListGetAndCustomOverride(t *testing.T) {
	store := newTestStore(t)

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 6)
	require.Equal(t, "c", list[0].Name)
	require.Equal(t, "built-in", list[0].Source())

	content, err := store.Get("go")
	require.NoError(t, err)
	require.Contains(t, content, "Hello, Go!")

	require.NoError(t, os.MkdirAll(store.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "go"), []byte("custom go"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "zig"), []byte("custom zig"), 0o644))

	content, err = store.Get("go")
	require.NoError(t, err)
	require.Equal(t, "custom go", content)

	list, err = store.List()
	require.NoError(t, err)
	require.Len(t, list, 7)
	require.Equal(t, Template{Name: "go", Builtin: true, Custom: true}, list[2])
	require.Equal(t, Template{Name: "zig", Custom: true}, list[6])
	require.Equal(t, "custom", list[6].Source())

	_, err = store.Get("cobol")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Available templates: c, cpp, go, java, rust, typescript, zig")

	_, err = store.Get("../secret")
	require.Error(t, err)
}

func TestImport(t *testing.T) {
	store := newTestStore(t)

	file := filepath.Join(t.TempDir(), "python.py")
	require.NoError(t, os.WriteFile(file, []byte("print('hi')"), 0o644))

	name, err := store.Import(file)
	require.NoError(t, err)
	require.Equal(t, "python", name)

	content, err := store.Get("python")
	require.NoError(t, err)
	require.Equal(t, "print('hi')", content)

	_, err = store.Import(filepath.Join(t.TempDir(), "missing.sh"))
	require.Error(t, err)
}

func TestEditSeedsFromBuiltin(t *testing.T) {
	store := newTestStore(t)

	var edited []string
	store.Editor = func(ctx context.Context, file string) error {
		edited = append(edited, file)
		data, err := os.ReadFile(file)
		require.NoError(t, err)
		return os.WriteFile(file, append(data, []byte("// edited\n")...), 0o644)
	}

	require.NoError(t, store.Edit(context.Background(), "c"))
	require.Equal(t, []string{filepath.Join(store.Dir, "c")}, edited)

	content, err := store.Get("c")
	require.NoError(t, err)
	require.Contains(t, content, "Hello, C!")
	require.True(t, strings.HasSuffix(content, "// edited\n"))

	require.NoError(t, store.Edit(context.Background(), "brand-new"))
	content, err = store.Get("brand-new")
	require.NoError(t, err)
	require.Equal(t, "// edited\n", content)
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(store.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "go"), []byte("custom go"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "zig"), []byte("custom zig"), 0o644))

	restored, err := store.Remove("go")
	require.NoError(t, err)
	require.True(t, restored)

	content, err := store.Get("go")
	require.NoError(t, err)
	require.Contains(t, content, "Hello, Go!")

	restored, err = store.Remove("zig")
	require.NoError(t, err)
	require.False(t, restored)

	_, err = store.Remove("zig")
	require.EqualError(t, err, `template "zig" not found`)

	_, err = store.Remove("go")
	require.Error(t, err)
	require.Contains(t, err.Error(), "built-in template without customizations")
}

func TestEditorCommand(t *testing.T) {
	tests := []struct {
		env      map[string]string
		expected []string
	}{
		{map[string]string{}, []string{"vi"}},
		{map[string]string{"EDITOR": "nano"}, []string{"nano"}},
		{map[string]string{"EDITOR": "nano", "VISUAL": "code --wait"}, []string{"code", "--wait"}},
		{map[string]string{"EDITOR": `"/opt/my editor/bin/ed" -n`}, []string{"/opt/my editor/bin/ed", "-n"}},
		{map[string]string{"EDITOR": "$HOME/bin/ed", "HOME": "/home/x"}, []string{"/home/x/bin/ed"}},
	}

	for _, test := range tests {
		args, err := EditorCommand(func(key string) string { return test.env[key] })
		require.NoError(t, err)
		require.Equal(t, test.expected, args)
	}

	_, err := EditorCommand(func(key string) string {
		if key == "EDITOR" {
			return `"unterminated`
		}
		return ""
	})
	require.Error(t, err)
}
