package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rusht/interpreter-go/pkg/driver"
)

func runDeps(args []string) int {
	if len(args) == 0 {
		return runDepsInstall()
	}
	switch args[0] {
	case "install":
		if len(args) > 1 {
			fmt.Fprintf(os.Stderr, "rusht deps install does not take arguments (received %s)\n", strings.Join(args[1:], " "))
			return 1
		}
		return runDepsInstall()
	case "update":
		return runDepsUpdate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown deps subcommand %q\n", args[0])
		return 1
	}
}

func runDepsInstall() int {
	return syncLibraries(nil, false)
}

func runDepsUpdate(targets []string) int {
	return syncLibraries(targets, true)
}

// syncLibraries fetches the manifest's git libraries and rewrites rusht.lock.
// Locked libraries with a checkout on disk are reused unless update selects
// them; an empty target list with update set refreshes every library.
func syncLibraries(targets []string, update bool) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to determine working directory: %v\n", err)
		return 1
	}
	manifestPath, err := driver.FindManifest(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to locate %s: %v\n", driver.ManifestFileName, err)
		return 1
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read manifest: %v\n", err)
		return 1
	}
	home, err := driver.ResolveHome()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve %s: %v\n", driver.HomeEnvVar, err)
		return 1
	}

	updateSet := make(map[string]struct{})
	for _, target := range targets {
		lib, ok := manifest.Libraries[strings.ReplaceAll(target, "-", "_")]
		if !ok {
			fmt.Fprintf(os.Stderr, "library %q is not declared in %s\n", target, manifest.Path)
			return 1
		}
		if !lib.IsGit() {
			fmt.Fprintf(os.Stderr, "library %q is a path library and has nothing to update\n", target)
			return 1
		}
		updateSet[lib.Name] = struct{}{}
	}

	fmt.Fprintf(os.Stdout, "Manifest: %s\n", manifest.Path)
	fmt.Fprintf(os.Stdout, "Cache directory: %s\n", home)

	lockPath := filepath.Join(manifest.Dir(), driver.LockfileFileName)
	lock, err := driver.LoadLockfile(lockPath)
	lockCreated := false
	switch {
	case err == nil:
		if lock.Root != manifest.Name {
			fmt.Fprintf(os.Stderr, "lockfile root %q does not match manifest name %q\n", lock.Root, manifest.Name)
			return 1
		}
	case errors.Is(err, os.ErrNotExist):
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
		lockCreated = true
	default:
		fmt.Fprintf(os.Stderr, "failed to read lockfile: %v\n", err)
		return 1
	}
	lock.Path = lockPath
	lock.Tool = cliToolVersion

	fetcher := newGitFetcher(home)
	changed := false
	var locked []*driver.LockedLibrary
	for _, lib := range manifest.OrderedLibraries() {
		if !lib.IsGit() {
			continue
		}
		existing, ok := lock.Find(lib.Name)
		_, selected := updateSet[lib.Name]
		refresh := update && (len(updateSet) == 0 || selected)
		if ok && !refresh && checkoutPresent(home, existing) {
			fmt.Fprintf(os.Stdout, "Using %s %s\n", lib.Name, existing.Version)
			locked = append(locked, existing)
			continue
		}
		entry, err := fetcher.Fetch(lib)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to fetch libraries: %v\n", err)
			return 1
		}
		if !ok || existing.Version != entry.Version || existing.Checksum != entry.Checksum {
			changed = true
		}
		fmt.Fprintf(os.Stdout, "Fetched %s %s\n", lib.Name, entry.Version)
		locked = append(locked, entry)
	}
	if len(locked) != len(lock.Libraries) {
		changed = true
	}
	lock.Libraries = locked

	if !changed && !lockCreated {
		fmt.Fprintln(os.Stdout, "Lockfile up to date")
		return 0
	}
	if err := driver.WriteLockfile(lock, lockPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write lockfile: %v\n", err)
		return 1
	}
	action := "Updated"
	if lockCreated {
		action = "Created"
	}
	fmt.Fprintf(os.Stdout, "%s %s\n", action, lockPath)
	return 0
}

func checkoutPresent(home string, locked *driver.LockedLibrary) bool {
	info, err := os.Stat(driver.LibraryCacheDir(home, locked.Name, locked.Version))
	return err == nil && info.IsDir()
}
