// Package sqlitepath locates the SQLite snapshot archive.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/kataru/pkg/dotdir"
)

const dbFile = "snapshots.db"

// ErrNotFound is returned when no archive exists at any candidate path.
var ErrNotFound = errors.New("could not find kataru snapshot archive; pass --sqlite")

// ResolveSQLitePath returns the archive path from, in order: the override,
// KATARU_SQLITE, KATARU_DB, then the first existing candidate file.
func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("KATARU_SQLITE")); envPath != "" {
		return envPath, nil
	}
	if envPath := strings.TrimSpace(os.Getenv("KATARU_DB")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrNotFound
}

// ResolveOrDefault behaves like ResolveSQLitePath but falls back to
// snapshots.db in the resolved .kataru/ directory, for commands that create
// the archive.
func ResolveOrDefault(override, configDir string) (string, error) {
	path, err := ResolveSQLitePath(override)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFile), nil
}

func sqliteCandidates() []string {
	candidates := []string{
		"kataru.db",
		filepath.Join(".kataru", dbFile),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".kataru", dbFile))
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append(candidates, filepath.Join(xdgHome, "kataru", dbFile))
	}

	return candidates
}
