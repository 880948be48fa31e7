// Package scope implements the two-tier variable store: one global scope
// shared by every namespace and one local scope per namespace.
//
// Bare keys resolve against the local scope of the current namespace first
// and then the global scope, for both reads and writes. Qualified keys
// ("ns:name") address exactly one scope. The store never creates a variable
// on write; every variable must be declared up front.
package scope

import (
	"maps"
	"sort"

	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/value"
)

// Store holds the global and per-namespace local scopes.
type Store struct {
	global map[string]value.Value
	locals map[string]map[string]value.Value
}

// New returns an empty store.
func New() *Store {
	return &Store{
		global: make(map[string]value.Value),
		locals: make(map[string]map[string]value.Value),
	}
}

// FromStory seeds a store with every variable the story declares.
func FromStory(s *story.Story) *Store {
	st := New()
	for _, ns := range s.NamespaceNames() {
		n, ok := s.Namespace(ns)
		if !ok {
			continue
		}
		for name, v := range n.State {
			st.Declare(ns, name, v)
		}
	}
	return st
}

// Declare creates or overwrites a variable in the scope of ns. The global
// namespace declares into the global scope.
func (s *Store) Declare(ns, name string, v value.Value) {
	if ns == "" || ns == story.GlobalNamespace {
		s.global[name] = v
		return
	}
	local, ok := s.locals[ns]
	if !ok {
		local = make(map[string]value.Value)
		s.locals[ns] = local
	}
	local[name] = v
}

// Resolve finds the scope key addresses as seen from namespace current. It
// returns the owning namespace (story.GlobalNamespace for the global scope)
// and the bare name.
func (s *Store) Resolve(current, key string) (ns, name string, ok bool) {
	if qns, bare, qualified := story.SplitKey(key); qualified {
		if _, found := s.scope(qns)[bare]; found {
			return canonical(qns), bare, true
		}
		return "", "", false
	}

	if current != "" && current != story.GlobalNamespace {
		if _, found := s.locals[current][key]; found {
			return current, key, true
		}
	}
	if _, found := s.global[key]; found {
		return story.GlobalNamespace, key, true
	}
	return "", "", false
}

// Get reads key as seen from namespace current.
func (s *Store) Get(current, key string) (value.Value, error) {
	ns, name, ok := s.Resolve(current, key)
	if !ok {
		return value.None(), kerrors.UnknownVariable(key)
	}
	return s.scope(ns)[name], nil
}

// Set writes key as seen from namespace current. Unknown keys fail with
// UnknownVariable and leave the store untouched.
func (s *Store) Set(current, key string, v value.Value) error {
	ns, name, ok := s.Resolve(current, key)
	if !ok {
		return kerrors.UnknownVariable(key)
	}
	s.scope(ns)[name] = v
	return nil
}

// Visible returns every variable readable by a bare name from namespace
// current, with locals shadowing globals.
func (s *Store) Visible(current string) map[string]value.Value {
	out := maps.Clone(s.global)
	if out == nil {
		out = make(map[string]value.Value)
	}
	if current != story.GlobalNamespace {
		maps.Copy(out, s.locals[current])
	}
	return out
}

// Namespaces returns the namespaces that own variables, global first and the
// rest sorted.
func (s *Store) Namespaces() []string {
	names := make([]string, 0, len(s.locals)+1)
	for ns := range s.locals {
		names = append(names, ns)
	}
	sort.Strings(names)
	return append([]string{story.GlobalNamespace}, names...)
}

// Entries returns a copy of one scope.
func (s *Store) Entries(ns string) map[string]value.Value {
	out := maps.Clone(s.scope(ns))
	if out == nil {
		out = make(map[string]value.Value)
	}
	return out
}

// Len returns the number of variables across all scopes.
func (s *Store) Len() int {
	n := len(s.global)
	for _, local := range s.locals {
		n += len(local)
	}
	return n
}

// Clone returns a deep copy sharing no maps with s.
func (s *Store) Clone() *Store {
	out := &Store{
		global: maps.Clone(s.global),
		locals: make(map[string]map[string]value.Value, len(s.locals)),
	}
	if out.global == nil {
		out.global = make(map[string]value.Value)
	}
	for ns, local := range s.locals {
		out.locals[ns] = maps.Clone(local)
	}
	return out
}

// Equal compares both stores by content.
func (s *Store) Equal(o *Store) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !maps.EqualFunc(s.global, o.global, value.Value.Equal) {
		return false
	}
	for _, ns := range union(s.locals, o.locals) {
		if !maps.EqualFunc(s.locals[ns], o.locals[ns], value.Value.Equal) {
			return false
		}
	}
	return true
}

func (s *Store) scope(ns string) map[string]value.Value {
	if ns == "" || ns == story.GlobalNamespace {
		return s.global
	}
	return s.locals[ns]
}

func canonical(ns string) string {
	if ns == "" {
		return story.GlobalNamespace
	}
	return ns
}

func union(a, b map[string]map[string]value.Value) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
