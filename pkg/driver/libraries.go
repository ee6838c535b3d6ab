package driver

import (
	"fmt"
	"path/filepath"
)

// LibraryEntry resolves the file evaluated for a library. Path libraries
// resolve against the manifest directory; git libraries must already be
// locked and checked out under home.
func (m *Manifest) LibraryEntry(lib *LibrarySpec, lock *Lockfile, home string) (string, error) {
	if lib == nil {
		return "", fmt.Errorf("library: nil spec")
	}
	if !lib.IsGit() {
		return filepath.Join(m.ResolvePath(lib.Path), lib.Main), nil
	}
	locked, ok := lock.Find(lib.Name)
	if !ok {
		return "", fmt.Errorf("library %q is not fetched; run `rusht deps`", lib.Name)
	}
	return filepath.Join(LibraryCacheDir(home, lib.Name, locked.Version), lib.Main), nil
}

// PreloadSources lists every file to evaluate before user code: libraries in
// manifest order, then preload files.
func (m *Manifest) PreloadSources(lock *Lockfile, home string) ([]string, error) {
	if m == nil {
		return nil, nil
	}
	var out []string
	for _, lib := range m.OrderedLibraries() {
		entry, err := m.LibraryEntry(lib, lock, home)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return append(out, m.PreloadPaths()...), nil
}
