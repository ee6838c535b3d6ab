package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestFileName is the project configuration file.
	ManifestFileName = "rusht.yml"
	// LockfileFileName pins fetched git libraries next to the manifest.
	LockfileFileName = "rusht.lock"

	DefaultPrompt      = "rusht> "
	DefaultHistorySize = 100
	DefaultLibraryMain = "main.rsh"
)

// ErrManifestNotFound is returned by FindManifest when no rusht.yml exists in
// the start directory or any of its parents.
var ErrManifestNotFound = errors.New("manifest not found")

// Manifest represents the parsed contents of rusht.yml.
type Manifest struct {
	Path         string
	Name         string
	Prompt       string
	History      HistoryConfig
	Preload      []string
	Libraries    map[string]*LibrarySpec
	LibraryOrder []string
}

// HistoryConfig controls the REPL history file. An empty File means the
// default location under the user's home directory.
type HistoryConfig struct {
	File string
	Size int
}

// LibrarySpec describes a library evaluated into the root environment before
// user code runs. Exactly one of Git or Path is set.
type LibrarySpec struct {
	Name   string
	Git    string
	Rev    string
	Tag    string
	Branch string
	Path   string
	Main   string
}

// IsGit reports whether the library is fetched from a git repository.
func (l *LibrarySpec) IsGit() bool {
	return l != nil && l.Git != ""
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses rusht.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FindManifest walks upwards from start looking for rusht.yml.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, ManifestFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found from %s upwards: %w", ManifestFileName, origin, ErrManifestNotFound)
		}
		dir = parent
	}
}

// Dir is the directory holding the manifest; relative paths resolve
// against it.
func (m *Manifest) Dir() string {
	if m == nil || m.Path == "" {
		return ""
	}
	return filepath.Dir(m.Path)
}

// ResolvePath makes a manifest-relative path absolute.
func (m *Manifest) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir(), p)
}

// PreloadPaths returns the preload files as absolute paths, in order.
func (m *Manifest) PreloadPaths() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.Preload))
	for _, p := range m.Preload {
		out = append(out, m.ResolvePath(p))
	}
	return out
}

// OrderedLibraries returns libraries in manifest order.
func (m *Manifest) OrderedLibraries() []*LibrarySpec {
	if m == nil {
		return nil
	}
	out := make([]*LibrarySpec, 0, len(m.LibraryOrder))
	for _, name := range m.LibraryOrder {
		if lib := m.Libraries[name]; lib != nil {
			out = append(out, lib)
		}
	}
	return out
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.History.Size < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("history.size must not be negative, got %d", m.History.Size))
	}
	for i, p := range m.Preload {
		if p == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("preload[%d] must be a non-empty path", i))
		}
	}
	names := make([]string, 0, len(m.Libraries))
	for name := range m.Libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, issue := range m.Libraries[name].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("libraries.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (l *LibrarySpec) validate() []string {
	var errs []string
	if l == nil {
		return errs
	}
	switch {
	case l.Git == "" && l.Path == "":
		errs = append(errs, "must specify git or path")
	case l.Git != "" && l.Path != "":
		errs = append(errs, "cannot specify both git and path")
	}
	refs := 0
	for _, ref := range []string{l.Rev, l.Tag, l.Branch} {
		if ref != "" {
			refs++
		}
	}
	if refs > 0 && l.Git == "" {
		errs = append(errs, "rev, tag, and branch apply only to git libraries")
	}
	if refs > 1 {
		errs = append(errs, "specify at most one of rev, tag, or branch")
	}
	if filepath.IsAbs(l.Main) || strings.HasPrefix(filepath.Clean(l.Main), "..") {
		errs = append(errs, fmt.Sprintf("main %q must stay inside the library", l.Main))
	}
	return errs
}

type manifestFile struct {
	Name      string      `yaml:"name"`
	Prompt    *string     `yaml:"prompt"`
	History   historyYAML `yaml:"history"`
	Preload   stringList  `yaml:"preload"`
	Libraries libraryMap  `yaml:"libraries"`
}

type historyYAML struct {
	File string `yaml:"file"`
	Size *int   `yaml:"size"`
}

type stringList []string

type libraryMap struct {
	items []libraryMapEntry
}

type libraryMapEntry struct {
	name string
	spec *LibrarySpec
}

func (mf manifestFile) toManifest(path string) *Manifest {
	result := &Manifest{
		Path:         path,
		Name:         sanitizeSegment(mf.Name),
		Prompt:       DefaultPrompt,
		History:      HistoryConfig{File: strings.TrimSpace(mf.History.File), Size: DefaultHistorySize},
		Preload:      append([]string(nil), mf.Preload...),
		Libraries:    make(map[string]*LibrarySpec, len(mf.Libraries.items)),
		LibraryOrder: make([]string, 0, len(mf.Libraries.items)),
	}
	if mf.Prompt != nil {
		result.Prompt = *mf.Prompt
	}
	if mf.History.Size != nil {
		result.History.Size = *mf.History.Size
	}
	for _, item := range mf.Libraries.items {
		name := sanitizeSegment(item.name)
		if _, exists := result.Libraries[name]; exists {
			continue
		}
		spec := *item.spec
		spec.Name = name
		if spec.Main == "" {
			spec.Main = DefaultLibraryMain
		}
		result.Libraries[name] = &spec
		result.LibraryOrder = append(result.LibraryOrder, name)
	}
	return result
}

func (lm *libraryMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		lm.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: libraries must be a mapping")
	}
	items := make([]libraryMapEntry, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: library names must be non-empty")
		}
		spec := new(LibrarySpec)
		if err := spec.unmarshalYAML(valNode); err != nil {
			return fmt.Errorf("manifest: library %q: %w", key, err)
		}
		items = append(items, libraryMapEntry{name: key, spec: spec})
	}
	lm.items = items
	return nil
}

// A scalar library entry is shorthand for a local path.
func (l *LibrarySpec) unmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = LibrarySpec{}
			return nil
		}
		*l = LibrarySpec{Path: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Git    string `yaml:"git"`
			Rev    string `yaml:"rev"`
			Tag    string `yaml:"tag"`
			Branch string `yaml:"branch"`
			Path   string `yaml:"path"`
			Main   string `yaml:"main"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*l = LibrarySpec{
			Git:    strings.TrimSpace(raw.Git),
			Rev:    strings.TrimSpace(raw.Rev),
			Tag:    strings.TrimSpace(raw.Tag),
			Branch: strings.TrimSpace(raw.Branch),
			Path:   strings.TrimSpace(raw.Path),
			Main:   strings.TrimSpace(raw.Main),
		}
		return nil
	case yaml.AliasNode:
		return l.unmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, strings.TrimSpace(str))
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}

func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	seg = strings.ReplaceAll(seg, "-", "_")
	return seg
}
