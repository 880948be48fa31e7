// Package story holds the story document a session runs against: namespaces
// with declared state, command declarations and passages of lines.
//
// The core treats a Story as read-only once loaded. Grammar beyond the YAML
// shape below is the interpreter's concern.
package story

import (
	"sort"
	"strings"

	"github.com/papercomputeco/kataru/pkg/value"
)

const (
	// GlobalNamespace is the implicit namespace whose state is visible everywhere.
	GlobalNamespace = "global"

	// Delimiter separates a namespace from a passage or variable name.
	Delimiter = ":"
)

// Story is a loaded story document.
type Story struct {
	// Start is the passage a fresh bookmark begins at. It may be qualified.
	Start string `yaml:"start,omitempty"`

	// Namespaces maps namespace name to its contents. The global namespace
	// is always present after Parse or Load.
	Namespaces map[string]*Namespace `yaml:"namespaces"`
}

// Namespace groups passages, declared state and command declarations.
type Namespace struct {
	State      map[string]value.Value `yaml:"state,omitempty"`
	Characters []string               `yaml:"characters,omitempty"`
	Commands   map[string]Params      `yaml:"commands,omitempty"`
	Passages   map[string]Passage     `yaml:"passages,omitempty"`
}

// Passage is the ordered line sequence of a named passage.
type Passage []Line

// SplitKey splits "ns:name" into its parts. Bare keys return qualified=false
// and an empty namespace.
func SplitKey(key string) (ns, name string, qualified bool) {
	ns, name, qualified = strings.Cut(key, Delimiter)
	if !qualified {
		return "", key, false
	}
	return ns, name, true
}

// Qualify joins a namespace and a name. Names in the global namespace stay bare.
func Qualify(ns, name string) string {
	if ns == "" || ns == GlobalNamespace {
		return name
	}
	return ns + Delimiter + name
}

// Namespace returns the named namespace.
func (s *Story) Namespace(name string) (*Namespace, bool) {
	if s == nil {
		return nil, false
	}
	ns, ok := s.Namespaces[name]
	return ns, ok && ns != nil
}

// NamespaceNames returns all namespace names in sorted order.
func (s *Story) NamespaceNames() []string {
	names := make([]string, 0, len(s.Namespaces))
	for name := range s.Namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lines returns the lines of passage in namespace ns.
func (s *Story) Lines(ns, passage string) (Passage, bool) {
	n, ok := s.Namespace(ns)
	if !ok {
		return nil, false
	}
	lines, ok := n.Passages[passage]
	return lines, ok
}

// ResolvePassage finds a passage by name as seen from namespace current.
// Qualified names address their namespace directly. Bare names are looked up
// in current first and then in the global namespace.
func (s *Story) ResolvePassage(current, name string) (ns, passage string, ok bool) {
	if qns, bare, qualified := SplitKey(name); qualified {
		if _, found := s.Lines(qns, bare); found {
			return qns, bare, true
		}
		return "", "", false
	}

	if _, found := s.Lines(current, name); found {
		return current, name, true
	}
	if _, found := s.Lines(GlobalNamespace, name); found {
		return GlobalNamespace, name, true
	}
	return "", "", false
}

// PassageNames returns the passages of ns in sorted order.
func (n *Namespace) PassageNames() []string {
	names := make([]string, 0, len(n.Passages))
	for name := range n.Passages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
