package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnvVar overrides the cache root used for fetched libraries.
const HomeEnvVar = "RUSHT_HOME"

// ResolveHome returns $RUSHT_HOME, or ~/.rusht when unset.
func ResolveHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv(HomeEnvVar)); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve %s %q: %w", HomeEnvVar, home, err)
		}
		return abs, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".rusht"), nil
}

// LibraryCacheDir is where a git library version is checked out.
func LibraryCacheDir(home, name, version string) string {
	return filepath.Join(home, "lib", sanitizeSegment(name), SanitizePathSegment(version))
}

// DefaultHistoryFile is the REPL history location when the manifest does not
// name one.
func DefaultHistoryFile() (string, error) {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".rusht_history"), nil
}

// SanitizePathSegment maps a version descriptor to a safe directory name.
func SanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
