// Package bookmark persists session state to YAML files.
//
// A bookmark holds the position, call stack and every scope of a session.
// Loading a saved bookmark reproduces exactly the state that was saved.
package bookmark

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/kataru/pkg/position"
	"github.com/papercomputeco/kataru/pkg/scope"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/value"
)

// Bookmark is the persisted form of session state.
type Bookmark struct {
	Namespace string              `yaml:"namespace,omitempty" json:"namespace"`
	Passage   string              `yaml:"passage,omitempty" json:"passage"`
	Line      int                 `yaml:"line" json:"line"`
	Stack     []position.Position `yaml:"stack,omitempty" json:"stack,omitempty"`

	// State maps namespace to variable name to value. Global variables live
	// under story.GlobalNamespace.
	State map[string]map[string]value.Value `yaml:"state,omitempty" json:"state,omitempty"`
}

// Capture copies a tracker and store into a new bookmark.
func Capture(tr *position.Tracker, sc *scope.Store) *Bookmark {
	b := &Bookmark{
		Namespace: tr.Current.Namespace,
		Passage:   tr.Current.Passage,
		Line:      tr.Current.Line,
		Stack:     slices.Clone(tr.Stack),
		State:     make(map[string]map[string]value.Value),
	}
	for _, ns := range sc.Namespaces() {
		entries := sc.Entries(ns)
		if len(entries) == 0 {
			continue
		}
		b.State[ns] = entries
	}
	return b
}

// Position returns the saved position.
func (b *Bookmark) Position() position.Position {
	return position.Position{Namespace: b.Namespace, Passage: b.Passage, Line: b.Line}
}

// Tracker returns a new tracker at the saved position and stack.
func (b *Bookmark) Tracker() *position.Tracker {
	return &position.Tracker{Current: b.Position(), Stack: slices.Clone(b.Stack)}
}

// Scope returns a store holding exactly the saved variables.
func (b *Bookmark) Scope() *scope.Store {
	sc := scope.New()
	for ns, vars := range b.State {
		for name, v := range vars {
			sc.Declare(ns, name, v)
		}
	}
	return sc
}

// Seed builds the store a session starts with: every variable the story
// declares, with saved values taking precedence. Saved variables the story no
// longer declares are dropped and returned qualified and sorted.
func (b *Bookmark) Seed(s *story.Story) (*scope.Store, []string) {
	sc := scope.FromStory(s)
	var dropped []string
	for _, ns := range sortedKeys(b.State) {
		for _, name := range sortedKeys(b.State[ns]) {
			key := ns + story.Delimiter + name
			if err := sc.Set(ns, key, b.State[ns][name]); err != nil {
				dropped = append(dropped, story.Qualify(ns, name))
			}
		}
	}
	return sc, dropped
}

// Equal compares two bookmarks by content. Map order is not significant.
func (b *Bookmark) Equal(o *Bookmark) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.Tracker().Equal(o.Tracker()) && b.Scope().Equal(o.Scope())
}

// Parse decodes a YAML bookmark.
func Parse(data []byte) (*Bookmark, error) {
	b := &Bookmark{}
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("parsing bookmark: %w", err)
	}
	if b.Line < 0 {
		return nil, fmt.Errorf("parsing bookmark: negative line %d", b.Line)
	}
	return b, nil
}

// Load reads a bookmark file.
func Load(path string) (*Bookmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bookmark: %w", err)
	}
	return Parse(data)
}

// LoadOrNew reads a bookmark file, returning an empty bookmark when the file
// does not exist.
func LoadOrNew(path string) (*Bookmark, error) {
	b, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Bookmark{}, nil
	}
	return b, err
}

// Marshal encodes b as YAML.
func (b *Bookmark) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding bookmark: %w", err)
	}
	return data, nil
}

// Save writes b to path, creating parent directories.
func (b *Bookmark) Save(path string) error {
	data, err := b.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating bookmark directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // save files are meant to be shared with the host
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Strings(keys)
	return keys
}
