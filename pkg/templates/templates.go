// Package templates manages the starter scripts printed by `scriptisto new`.
//
// Built-in templates are embedded in the binary. Custom templates live in the user's config
// directory and take precedence over built-ins with the same name.
package templates

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/shell"

	"github.com/scriptisto/scriptisto/pkg/scriptlog"
)

const builtinExt = ".tmpl"

//go:embed data/*.tmpl
var builtinFS embed.FS

// Template describes an available template
type Template struct {
	Name    string
	Builtin bool
	Custom  bool
}

// Source returns a short description of where the template comes from.
func (t Template) Source() string {
	switch {
	case t.Custom && t.Builtin:
		return "custom (overrides built-in)"
	case t.Custom:
		return "custom"
	default:
		return "built-in"
	}
}

// EditorFunc opens an editor for the given file and blocks until it's closed
type EditorFunc func(ctx context.Context, file string) error

// Store provides access to built-in and custom templates
type Store struct {
	// Dir contains the custom templates, one file per template
	Dir string
	// Editor is used by Edit
	Editor EditorFunc
}

// NewStore returns a Store for the user's config directory.
func NewStore() (*Store, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, eris.Wrap(err, "failed to determine the user config directory")
	}

	return &Store{
		Dir:    filepath.Join(configDir, "scriptisto", "templates"),
		Editor: RunEditor,
	}, nil
}

func builtin(name string) (string, bool) {
	data, err := builtinFS.ReadFile(path.Join("data", name+builtinExt))
	if err != nil {
		return "", false
	}

	return string(data), true
}

func builtinNames() []string {
	entries, err := fs.ReadDir(builtinFS, "data")
	if err != nil {
		panic(err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), builtinExt))
	}
	return names
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return eris.Errorf("invalid template name %q", name)
	}

	return nil
}

func (s *Store) customPath(name string) string {
	return filepath.Join(s.Dir, name)
}

func (s *Store) custom(name string) (string, bool, error) {
	data, err := os.ReadFile(s.customPath(name))
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, eris.Wrapf(err, "failed to read template %s", name)
	}

	return string(data), true, nil
}

// List returns all templates sorted by name.
func (s *Store) List() ([]Template, error) {
	byName := make(map[string]*Template)
	for _, name := range builtinNames() {
		byName[name] = &Template{Name: name, Builtin: true}
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil && !eris.Is(err, os.ErrNotExist) {
		return nil, eris.Wrapf(err, "failed to read %s", s.Dir)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		item, ok := byName[entry.Name()]
		if !ok {
			item = &Template{Name: entry.Name()}
			byName[entry.Name()] = item
		}
		item.Custom = true
	}

	result := make([]Template, 0, len(byName))
	for _, item := range byName {
		result = append(result, *item)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Get returns the content of a template. Custom templates win over built-ins.
func (s *Store) Get(name string) (string, error) {
	err := validateName(name)
	if err != nil {
		return "", err
	}

	content, found, err := s.custom(name)
	if err != nil || found {
		return content, err
	}

	content, found = builtin(name)
	if found {
		return content, nil
	}

	list, err := s.List()
	if err != nil {
		return "", err
	}

	names := make([]string, len(list))
	for idx, item := range list {
		names[idx] = item.Name
	}

	return "", eris.Errorf("template %q not found. Available templates: %s", name, strings.Join(names, ", "))
}

// Import copies a file into the custom templates. The template is named after the file without
// its extension.
func (s *Store) Import(file string) (string, error) {
	base := filepath.Base(file)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	err := validateName(name)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return "", eris.Wrapf(err, "failed to read %s", file)
	}

	err = s.write(name, content)
	if err != nil {
		return "", err
	}

	return name, nil
}

func (s *Store) write(name string, content []byte) error {
	err := os.MkdirAll(s.Dir, 0o755)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", s.Dir)
	}

	err = os.WriteFile(s.customPath(name), content, 0o644)
	if err != nil {
		return eris.Wrapf(err, "failed to write template %s", name)
	}

	return nil
}

// Edit opens the custom copy of a template in an editor. A missing custom copy is created from
// the built-in template or left empty for new templates.
func (s *Store) Edit(ctx context.Context, name string) error {
	err := validateName(name)
	if err != nil {
		return err
	}

	_, found, err := s.custom(name)
	if err != nil {
		return err
	}

	if !found {
		content, _ := builtin(name)
		err = s.write(name, []byte(content))
		if err != nil {
			return err
		}
	}

	editor := s.Editor
	if editor == nil {
		editor = RunEditor
	}

	return editor(ctx, s.customPath(name))
}

// Remove deletes a custom template. It reports whether a built-in template with the same name
// is available again.
func (s *Store) Remove(name string) (bool, error) {
	err := validateName(name)
	if err != nil {
		return false, err
	}

	_, isBuiltin := builtin(name)
	err = os.Remove(s.customPath(name))
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			if isBuiltin {
				return false, eris.Errorf("template %q is a built-in template without customizations", name)
			}
			return false, eris.Errorf("template %q not found", name)
		}
		return false, eris.Wrapf(err, "failed to remove template %s", name)
	}

	return isBuiltin, nil
}

// EditorCommand returns the user's editor command line from $VISUAL or $EDITOR, falling back to vi.
func EditorCommand(getenv func(string) string) ([]string, error) {
	line := getenv("VISUAL")
	if line == "" {
		line = getenv("EDITOR")
	}
	if line == "" {
		line = "vi"
	}

	fields, err := shell.Fields(line, getenv)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse editor command %q", line)
	}

	if len(fields) == 0 {
		return []string{"vi"}, nil
	}

	return fields, nil
}

// RunEditor opens file in the user's editor with the terminal attached.
func RunEditor(ctx context.Context, file string) error {
	args, err := EditorCommand(os.Getenv)
	if err != nil {
		return err
	}

	args = append(args, file)
	scriptlog.Log(ctx).Debug().Strs("args", args).Msg("starting editor")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Run()
	if err != nil {
		return eris.Wrapf(err, "editor %s failed", args[0])
	}

	return nil
}
