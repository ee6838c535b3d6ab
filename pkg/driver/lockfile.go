package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Lockfile models the rusht.lock contents.
type Lockfile struct {
	Path      string
	Root      string
	Generated string
	Tool      string
	Libraries []*LockedLibrary
}

// LockedLibrary pins one git library to the commit that was checked out.
type LockedLibrary struct {
	Name     string
	Version  string
	Source   string
	Commit   string
	Checksum string
}

// NewLockfile constructs a lockfile with metadata seeded for the provided root.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      sanitizeSegment(root),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Libraries: []*LockedLibrary{},
	}
}

// LoadLockfile parses rusht.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk, refreshing metadata.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}

	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the locked entry for a library name.
func (l *Lockfile) Find(name string) (*LockedLibrary, bool) {
	if l == nil {
		return nil, false
	}
	name = sanitizeSegment(name)
	for _, lib := range l.Libraries {
		if lib != nil && lib.Name == name {
			return lib, true
		}
	}
	return nil, false
}

func (l *Lockfile) normalize() {
	l.Root = sanitizeSegment(l.Root)
	l.Tool = strings.TrimSpace(l.Tool)
	kept := l.Libraries[:0]
	for _, lib := range l.Libraries {
		if lib == nil {
			continue
		}
		lib.Name = sanitizeSegment(lib.Name)
		lib.Version = strings.TrimSpace(lib.Version)
		lib.Source = strings.TrimSpace(lib.Source)
		lib.Commit = strings.TrimSpace(lib.Commit)
		lib.Checksum = strings.TrimSpace(lib.Checksum)
		kept = append(kept, lib)
	}
	l.Libraries = kept
	sort.SliceStable(l.Libraries, func(i, j int) bool {
		return l.Libraries[i].Name < l.Libraries[j].Name
	})
}

func (l *Lockfile) toDisk() lockfileDisk {
	libs := make([]lockfileLibrary, 0, len(l.Libraries))
	for _, lib := range l.Libraries {
		libs = append(libs, lockfileLibrary{
			Name:     lib.Name,
			Version:  lib.Version,
			Source:   lib.Source,
			Commit:   lib.Commit,
			Checksum: lib.Checksum,
		})
	}
	return lockfileDisk{
		Root:      l.Root,
		Generated: l.Generated,
		Tool:      l.Tool,
		Libraries: libs,
	}
}

type lockfileDisk struct {
	Root      string            `yaml:"root"`
	Generated string            `yaml:"generated"`
	Tool      string            `yaml:"tool"`
	Libraries []lockfileLibrary `yaml:"libraries"`
}

type lockfileLibrary struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Source   string `yaml:"source"`
	Commit   string `yaml:"commit"`
	Checksum string `yaml:"checksum"`
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Root:      d.Root,
		Generated: strings.TrimSpace(d.Generated),
		Tool:      d.Tool,
		Libraries: make([]*LockedLibrary, 0, len(d.Libraries)),
	}
	for _, lib := range d.Libraries {
		lock.Libraries = append(lock.Libraries, &LockedLibrary{
			Name:     lib.Name,
			Version:  lib.Version,
			Source:   lib.Source,
			Commit:   lib.Commit,
			Checksum: lib.Checksum,
		})
	}
	lock.normalize()
	return lock
}
