// Package dotdir manages the .kataru/ and ~/.kataru directories.
//
// The save slots hold bookmarks for resuming play across kataru CLI runs.
// Each slot is persisted as a YAML bookmark under the saves/ subdirectory.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const dirName = ".kataru"

// Location names the place a kataru directory was found.
type Location int

const (
	// LocationOverride is a directory passed with --config-dir.
	LocationOverride Location = iota
	// LocationLocal is ./.kataru in the working directory.
	LocationLocal
	// LocationHome is ~/.kataru.
	LocationHome
)

func (l Location) String() string {
	switch l {
	case LocationOverride:
		return "override"
	case LocationLocal:
		return "local"
	case LocationHome:
		return "home"
	default:
		return fmt.Sprintf("Location(%d)", int(l))
	}
}

// Manager locates the directory that holds save slots and the snapshot
// archive for a run.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Resolve picks the kataru directory without creating anything. An override
// wins, then a ./.kataru directory that already exists, then ~/.kataru.
func (m *Manager) Resolve(overrideDir string) (string, Location, error) {
	if overrideDir != "" {
		dir, err := filepath.Abs(overrideDir)
		return dir, LocationOverride, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", 0, fmt.Errorf("getting current directory: %w", err)
	}
	local := filepath.Join(cwd, dirName)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, LocationLocal, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", 0, fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), LocationHome, nil
}

// Target resolves the kataru directory and makes sure it exists. Slot
// files go in its saves/ subdirectory, which is created on first save.
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, _, err := m.Resolve(overrideDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating kataru directory %s: %w", dir, err)
	}
	return dir, nil
}
