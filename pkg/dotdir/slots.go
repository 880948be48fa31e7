package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/papercomputeco/kataru/pkg/bookmark"
)

const (
	savesDir = "saves"
	slotExt  = ".yml"

	// DefaultSlot is the slot used when the caller does not name one.
	DefaultSlot = "autosave"
)

// SlotPath returns the bookmark file path for the named save slot.
func (m *Manager) SlotPath(name, overrideDir string) (string, error) {
	if err := validSlot(name); err != nil {
		return "", err
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, savesDir, name+slotExt), nil
}

// LoadSlot loads the bookmark stored in the named slot.
// Returns nil, nil if the slot is empty (new game state).
func (m *Manager) LoadSlot(name, overrideDir string) (*bookmark.Bookmark, error) {
	path, err := m.SlotPath(name, overrideDir)
	if err != nil {
		return nil, err
	}

	b, err := bookmark.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading slot %s: %w", name, err)
	}

	return b, nil
}

// SaveSlot persists b into the named slot.
func (m *Manager) SaveSlot(b *bookmark.Bookmark, name, overrideDir string) error {
	if b == nil {
		return errors.New("cannot save nil bookmark")
	}

	path, err := m.SlotPath(name, overrideDir)
	if err != nil {
		return err
	}

	if err := b.Save(path); err != nil {
		return fmt.Errorf("saving slot %s: %w", name, err)
	}

	return nil
}

// ClearSlot removes the named slot so the next run starts from the story's
// start passage. Returns nil if the slot is already empty.
func (m *Manager) ClearSlot(name, overrideDir string) error {
	path, err := m.SlotPath(name, overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing slot %s: %w", name, err)
	}

	return nil
}

// Slots lists the names of all saved slots, sorted.
func (m *Manager) Slots(overrideDir string) ([]string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(dir, savesDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading saves directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), slotExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), slotExt))
	}
	sort.Strings(names)

	return names, nil
}

func validSlot(name string) error {
	if name == "" {
		return errors.New("slot name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid slot name %q", name)
	}
	return nil
}
