// Package interp is the reference story interpreter. It decides the next
// line from the current position and host input, mutating the position
// tracker and scope store it is handed, and yields a line projection.
package interp

import (
	"fmt"

	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/position"
	"github.com/papercomputeco/kataru/pkg/scope"
	"github.com/papercomputeco/kataru/pkg/story"
)

// DefaultMaxSteps bounds the silent lines (set, branch, call, goto, return)
// one Advance may run through before it gives up.
const DefaultMaxSteps = 10000

// State is the session state an interpreter operates on. The interpreter
// owns none of it.
type State struct {
	Story   *story.Story
	Tracker *position.Tracker
	Scope   *scope.Store
}

// Interpreter advances a story by one visible line.
type Interpreter interface {
	// Advance runs from the current position until it produces a line for
	// the host. Input answers a pending Choices line and is otherwise
	// ignored.
	Advance(st *State, input string) (line.Line, error)

	// Reset forgets any in-flight interaction, such as presented choices.
	// Hosts call it after moving the position from outside.
	Reset()

	// Checkpoint captures the in-flight interaction so Resume can put it
	// back after the position is rewound to where it was taken.
	Checkpoint() Checkpoint

	// Resume replaces the in-flight interaction with c.
	Resume(c Checkpoint)
}

// Checkpoint is the interaction an interpreter holds between advances. The
// zero value means nothing is pending.
type Checkpoint struct {
	Choices *story.Choices
	At      position.Position
}

// Pending reports whether c holds presented choices.
func (c Checkpoint) Pending() bool {
	return c.Choices != nil
}

// Machine is the default Interpreter.
type Machine struct {
	maxSteps int

	// pending holds the choices presented at pendingAt until answered.
	pending   *story.Choices
	pendingAt position.Position
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(m *Machine) {
		m.maxSteps = n
	}
}

// New returns a Machine.
func New(opts ...Option) *Machine {
	m := &Machine{maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reset implements Interpreter.
func (m *Machine) Reset() {
	m.pending = nil
	m.pendingAt = position.Position{}
}

// Pending reports whether presented choices are awaiting an answer.
func (m *Machine) Pending() bool {
	return m.pending != nil
}

// Checkpoint implements Interpreter.
func (m *Machine) Checkpoint() Checkpoint {
	return Checkpoint{Choices: m.pending, At: m.pendingAt}
}

// Resume implements Interpreter.
func (m *Machine) Resume(c Checkpoint) {
	m.pending = c.Choices
	m.pendingAt = c.At
}

// Advance implements Interpreter. A failed advance keeps the choices that
// were pending before it.
func (m *Machine) Advance(st *State, input string) (l line.Line, err error) {
	if st == nil || st.Story == nil || st.Tracker == nil || st.Scope == nil {
		return nil, kerrors.ErrNotInitialized
	}
	tr := st.Tracker

	saved := m.Checkpoint()
	defer func() {
		if err != nil {
			m.Resume(saved)
		}
	}()

	if m.pending != nil {
		if m.pendingAt != tr.Current {
			m.Reset()
		} else {
			l, answered, err := m.answer(st, input)
			if err != nil || !answered {
				return l, err
			}
		}
	}

	for steps := 0; steps < m.maxSteps; steps++ {
		cur := tr.Current
		lines, ok := st.Story.Lines(cur.Namespace, cur.Passage)
		if !ok {
			return nil, navigation(cur, kerrors.UnknownPassage(story.Qualify(cur.Namespace, cur.Passage)))
		}
		if cur.PastEnd(len(lines)) {
			if tr.Return() {
				continue
			}
			tr.SetLine(len(lines))
			return line.End{}, nil
		}

		l := lines[cur.Line]
		switch l.Kind() {
		case story.KindDialogue:
			d, err := dialogue(st, l.Dialogue)
			if err != nil {
				return nil, navigation(cur, err)
			}
			tr.Step()
			return d, nil

		case story.KindChoices:
			c, err := present(st, l.Choices)
			if err != nil {
				return nil, navigation(cur, err)
			}
			m.pending = l.Choices
			m.pendingAt = cur
			return c, nil

		case story.KindCommand:
			c, err := command(st, l.Command)
			if err != nil {
				return nil, navigation(cur, err)
			}
			tr.Step()
			return c, nil

		case story.KindSet:
			if err := assign(st, l.Set); err != nil {
				return nil, navigation(cur, err)
			}
			tr.Step()

		case story.KindBranch:
			ok, err := condition(st, l.Branch.If)
			if err != nil {
				return nil, navigation(cur, err)
			}
			target := l.Branch.Else
			if ok {
				target = l.Branch.Then
			}
			if target == "" {
				tr.Step()
				continue
			}
			if err := call(st, target); err != nil {
				return nil, navigation(cur, err)
			}

		case story.KindCall:
			if err := call(st, l.Call); err != nil {
				return nil, navigation(cur, err)
			}

		case story.KindGoto:
			if err := jump(st, l.Goto); err != nil {
				return nil, navigation(cur, err)
			}

		case story.KindReturn:
			if !tr.Return() {
				tr.SetLine(len(lines))
				return line.End{}, nil
			}

		case story.KindEnd:
			return line.End{}, nil

		default:
			return nil, navigation(cur, fmt.Errorf("line has no recognizable kind"))
		}
	}
	return nil, kerrors.Newf(kerrors.CodeNavigation, "no visible line after %d steps", m.maxSteps)
}

// answer resolves input against the pending choices. It reports answered
// false with an InvalidChoice line when input matches nothing.
func (m *Machine) answer(st *State, input string) (line.Line, bool, error) {
	choices := m.pending
	cur := st.Tracker.Current

	target := ""
	if input == "" && choices.Default != "" {
		target = choices.Default
	} else {
		options, err := visible(st, choices)
		if err != nil {
			return nil, false, navigation(cur, err)
		}
		for _, opt := range options {
			if opt.Caption == input {
				target = opt.Target
				break
			}
		}
	}
	if target == "" {
		return line.InvalidChoice{Input: input}, false, nil
	}

	if err := jump(st, target); err != nil {
		return nil, false, navigation(cur, err)
	}
	m.Reset()
	return nil, true, nil
}

func call(st *State, target string) error {
	ns, passage, ok := st.Story.ResolvePassage(st.Tracker.Current.Namespace, target)
	if !ok {
		return kerrors.UnknownPassage(target)
	}
	st.Tracker.Call(ns, passage)
	return nil
}

func jump(st *State, target string) error {
	ns, passage, ok := st.Story.ResolvePassage(st.Tracker.Current.Namespace, target)
	if !ok {
		return kerrors.UnknownPassage(target)
	}
	st.Tracker.Jump(ns, passage)
	return nil
}

func navigation(at position.Position, cause error) error {
	return kerrors.Wrap(kerrors.CodeNavigation, "advancing story", at.String(), cause)
}
