package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"rusht/interpreter-go/pkg/driver"
)

type gitFetcher struct {
	home string
}

func newGitFetcher(home string) *gitFetcher {
	if home == "" {
		return nil
	}
	return &gitFetcher{home: home}
}

// Fetch checks out the library under home/lib/<name>/<version> and returns the
// lock entry pinning it.
func (g *gitFetcher) Fetch(lib *driver.LibrarySpec) (*driver.LockedLibrary, error) {
	if g == nil {
		return nil, errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(lib.Git)
	if url == "" {
		return nil, fmt.Errorf("library %q: git URL required", lib.Name)
	}

	baseDir := filepath.Dir(driver.LibraryCacheDir(g.home, lib.Name, ""))
	version, commit, err := ensureGitCheckout(baseDir, url, lib)
	if err != nil {
		return nil, fmt.Errorf("library %q: %w", lib.Name, err)
	}

	checkoutDir := filepath.Join(baseDir, driver.SanitizePathSegment(version))
	if _, err := os.Stat(filepath.Join(checkoutDir, lib.Main)); err != nil {
		return nil, fmt.Errorf("library %q: entry %s missing at %s", lib.Name, lib.Main, version)
	}
	checksum, err := dirChecksum(checkoutDir)
	if err != nil {
		return nil, err
	}

	return &driver.LockedLibrary{
		Name:     lib.Name,
		Version:  version,
		Source:   fmt.Sprintf("git+%s@%s", url, commit),
		Commit:   commit,
		Checksum: checksum,
	}, nil
}

func ensureGitCheckout(baseDir, url string, lib *driver.LibrarySpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	revisions, descriptor := gitRevisionsFor(lib)

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{
		URL:               url,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	var hash *plumbing.Hash
	for _, revision := range revisions {
		if hash, err = repo.ResolveRevision(revision); err == nil {
			break
		}
	}
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revisions[0], err)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, driver.SanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revisions[0], err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

// gitRevisionsFor lists candidate revisions in resolution order. A clone only
// creates a local head for the default branch, so other branches resolve
// through their remote-tracking ref.
func gitRevisionsFor(lib *driver.LibrarySpec) ([]plumbing.Revision, string) {
	if rev := strings.TrimSpace(lib.Rev); rev != "" {
		return []plumbing.Revision{plumbing.Revision(rev)}, rev
	}
	if tag := strings.TrimSpace(lib.Tag); tag != "" {
		return []plumbing.Revision{plumbing.Revision("refs/tags/" + tag)}, tag
	}
	if branch := strings.TrimSpace(lib.Branch); branch != "" {
		return []plumbing.Revision{
			plumbing.Revision("refs/heads/" + branch),
			plumbing.Revision("refs/remotes/origin/" + branch),
		}, branch
	}
	return []plumbing.Revision{plumbing.Revision("HEAD")}, ""
}

func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
