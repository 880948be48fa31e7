// Package position tracks where a session is in its story: the current
// namespace, passage and line index, plus the call stack of pending returns.
package position

import (
	"fmt"
	"slices"
)

// Position is a line within a passage. Line is an index into the passage's
// lines; a Line equal to the passage length means the passage has run past
// its end.
type Position struct {
	Namespace string `yaml:"namespace" json:"namespace"`
	Passage   string `yaml:"passage" json:"passage"`
	Line      int    `yaml:"line" json:"line"`
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%s#%d", p.Namespace, p.Passage, p.Line)
}

// PastEnd reports whether p has run past a passage of n lines.
func (p Position) PastEnd(n int) bool {
	return p.Line >= n
}

// Tracker owns the current Position and the CallStack.
type Tracker struct {
	Current Position
	Stack   []Position
}

// New returns a tracker at p with an empty stack.
func New(p Position) *Tracker {
	return &Tracker{Current: p}
}

// Goto moves to the first line of a passage and discards the call stack.
// Explicit navigation drops any in-flight call context.
func (t *Tracker) Goto(ns, passage string) {
	t.Current = Position{Namespace: ns, Passage: passage}
	t.Stack = t.Stack[:0]
}

// Jump moves to the first line of a passage keeping the call stack, as story
// level jumps and choice targets do.
func (t *Tracker) Jump(ns, passage string) {
	t.Current = Position{Namespace: ns, Passage: passage}
}

// Call pushes the line after the current one as the return point and jumps
// to the first line of passage.
func (t *Tracker) Call(ns, passage string) {
	ret := t.Current
	ret.Line++
	t.Stack = append(t.Stack, ret)
	t.Jump(ns, passage)
}

// Return pops the most recent return point. It reports false when the stack
// is empty, leaving the position unchanged.
func (t *Tracker) Return() bool {
	if len(t.Stack) == 0 {
		return false
	}
	last := len(t.Stack) - 1
	t.Current = t.Stack[last]
	t.Stack = t.Stack[:last]
	return true
}

// Step advances to the next line.
func (t *Tracker) Step() {
	t.Current.Line++
}

// SetLine moves within the current passage.
func (t *Tracker) SetLine(line int) {
	t.Current.Line = line
}

// Depth is the number of pending returns.
func (t *Tracker) Depth() int {
	return len(t.Stack)
}

// Clone returns a deep copy.
func (t *Tracker) Clone() *Tracker {
	return &Tracker{
		Current: t.Current,
		Stack:   slices.Clone(t.Stack),
	}
}

// Equal compares position and stack by value. A nil and an empty stack are equal.
func (t *Tracker) Equal(o *Tracker) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Current == o.Current && slices.Equal(t.Stack, o.Stack)
}
