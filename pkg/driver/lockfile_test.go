package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLockfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LockfileFileName)

	lock := NewLockfile("my-app", "rusht-cli")
	lock.Libraries = append(lock.Libraries,
		&LockedLibrary{Name: "zeta", Version: "v2", Source: "git+https://example.com/zeta.git@222", Commit: "222", Checksum: "cafe"},
		nil,
		&LockedLibrary{Name: "alpha-lib", Version: "main@111", Source: "git+https://example.com/alpha.git@111", Commit: " 111 "},
	)
	if err := WriteLockfile(lock, path); err != nil {
		t.Fatalf("WriteLockfile returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read lockfile: %v", err)
	}
	if !strings.Contains(string(data), "root: my_app") || !strings.Contains(string(data), "tool: rusht-cli") {
		t.Fatalf("unexpected lockfile contents:\n%s", data)
	}

	loaded, err := LoadLockfile(path)
	if err != nil {
		t.Fatalf("LoadLockfile returned error: %v", err)
	}
	if loaded.Path != path || loaded.Root != "my_app" || loaded.Generated == "" {
		t.Fatalf("unexpected metadata: %#v", loaded)
	}
	if len(loaded.Libraries) != 2 {
		t.Fatalf("expected 2 libraries, got %d", len(loaded.Libraries))
	}
	if loaded.Libraries[0].Name != "alpha_lib" || loaded.Libraries[1].Name != "zeta" {
		t.Fatalf("expected libraries sorted by name, got %q, %q", loaded.Libraries[0].Name, loaded.Libraries[1].Name)
	}
	alpha, ok := loaded.Find("alpha-lib")
	if !ok || alpha.Commit != "111" || alpha.Version != "main@111" {
		t.Fatalf("Find(alpha-lib) = %#v, %v", alpha, ok)
	}
	if _, ok := loaded.Find("missing"); ok {
		t.Fatalf("expected missing library lookup to fail")
	}
}

func TestLoadLockfileRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockfileFileName)
	if err := os.WriteFile(path, []byte("root: x\npackages: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadLockfile(path); err == nil {
		t.Fatalf("expected error for unknown lockfile field")
	}
}

func TestWriteLockfileRequiresPath(t *testing.T) {
	if err := WriteLockfile(NewLockfile("x", "y"), ""); err == nil {
		t.Fatalf("expected error when no path is known")
	}
	if err := WriteLockfile(nil, "ignored"); err == nil {
		t.Fatalf("expected error for nil lockfile")
	}
}
