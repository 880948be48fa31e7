// Package session owns the state of one running story: the story document,
// position tracker, scope store, snapshot store, interpreter and the current
// line projection. Every operation runs to completion on the calling
// goroutine; a Session must not be shared between goroutines.
package session

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/papercomputeco/kataru/pkg/bookmark"
	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/interp"
	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/logger"
	"github.com/papercomputeco/kataru/pkg/position"
	"github.com/papercomputeco/kataru/pkg/scope"
	"github.com/papercomputeco/kataru/pkg/snapshot"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/value"
)

// Session is an initialized story session. The zero value is uninitialized
// and every operation on it fails with NotInitialized.
type Session struct {
	story     *story.Story
	tracker   *position.Tracker
	scope     *scope.Store
	snapshots *snapshot.Store
	interp    interp.Interpreter
	current   line.Line
	logger    *slog.Logger
	maxSteps  int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Sessions log nothing by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithInterpreter replaces the default interp.Machine.
func WithInterpreter(i interp.Interpreter) Option {
	return func(s *Session) {
		s.interp = i
	}
}

// WithMaxSteps bounds the default interp.Machine. It has no effect with
// WithInterpreter. Each session builds its own machine, so the option is
// safe to share across sessions.
func WithMaxSteps(n int) Option {
	return func(s *Session) {
		s.maxSteps = n
	}
}

// New initializes a session from a story and an initial bookmark. A nil or
// empty bookmark starts at the story's start passage with its declared
// state. With validate set the story is checked first and an invalid story
// fails initialization.
func New(st *story.Story, b *bookmark.Bookmark, validate bool, opts ...Option) (*Session, error) {
	if st == nil {
		return nil, kerrors.New(kerrors.CodeNotInitialized, "story is missing", "")
	}
	s := &Session{
		story:     st,
		snapshots: snapshot.NewStore(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interp == nil {
		var machineOpts []interp.Option
		if s.maxSteps > 0 {
			machineOpts = append(machineOpts, interp.WithMaxSteps(s.maxSteps))
		}
		s.interp = interp.New(machineOpts...)
	}

	if validate {
		if err := interp.Validate(st); err != nil {
			return nil, kerrors.Wrap(kerrors.CodeNotInitialized, "story failed validation", "", err)
		}
	}

	if b == nil {
		b = &bookmark.Bookmark{}
	}
	tr, sc, err := s.restore(b)
	if err != nil {
		return nil, err
	}
	s.tracker, s.scope = tr, sc

	s.logger.Debug("session initialized",
		"position", s.tracker.Current.String(),
		"variables", s.scope.Len(),
	)
	return s, nil
}

// Open loads a story file or directory and a bookmark file and initializes a
// session from them. An empty bookmarkPath starts fresh.
func Open(storyPath, bookmarkPath string, validate bool, opts ...Option) (*Session, error) {
	st, err := story.Load(storyPath)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.CodeNotInitialized, "story could not be loaded", storyPath, err)
	}

	b := &bookmark.Bookmark{}
	if bookmarkPath != "" {
		b, err = bookmark.Load(bookmarkPath)
		if err != nil {
			return nil, kerrors.Wrap(kerrors.CodePersistence, "bookmark could not be loaded", bookmarkPath, err)
		}
	}
	return New(st, b, validate, opts...)
}

// restore builds the tracker and scope store a bookmark describes against
// the session's story without touching live state.
func (s *Session) restore(b *bookmark.Bookmark) (*position.Tracker, *scope.Store, error) {
	tr := b.Tracker()
	if tr.Current.Passage == "" {
		if s.story.Start == "" {
			return nil, nil, kerrors.New(kerrors.CodeNotInitialized, "story has no start passage", "")
		}
		ns, passage, ok := s.story.ResolvePassage(story.GlobalNamespace, s.story.Start)
		if !ok {
			return nil, nil, kerrors.Wrap(kerrors.CodeNotInitialized, "story start is invalid", s.story.Start,
				kerrors.UnknownPassage(s.story.Start))
		}
		tr = position.New(position.Position{Namespace: ns, Passage: passage})
	}
	if tr.Current.Namespace == "" {
		tr.Current.Namespace = story.GlobalNamespace
	}

	for _, p := range append(slices.Clone(tr.Stack), tr.Current) {
		lines, ok := s.story.Lines(p.Namespace, p.Passage)
		if !ok {
			return nil, nil, kerrors.Wrap(kerrors.CodePersistence, "bookmark points outside the story", p.String(),
				kerrors.UnknownPassage(story.Qualify(p.Namespace, p.Passage)))
		}
		if p.Line > len(lines) {
			return nil, nil, kerrors.New(kerrors.CodePersistence, "bookmark line is past the passage end", p.String())
		}
	}

	sc, dropped := b.Seed(s.story)
	for _, key := range dropped {
		s.logger.Warn("dropping saved variable the story no longer declares", "key", key)
	}
	return tr, sc, nil
}

func (s *Session) ready() error {
	if s == nil || s.story == nil {
		return kerrors.ErrNotInitialized
	}
	return nil
}

// Advance asks the interpreter for the next line, answering pending choices
// with input, and makes it the current line. A failed advance leaves
// position and scopes as they were.
func (s *Session) Advance(input string) (line.Line, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	tr, sc := s.tracker.Clone(), s.scope.Clone()
	l, err := s.interp.Advance(s.state(), input)
	if err != nil {
		s.tracker, s.scope = tr, sc
		s.logger.Debug("advance failed", "position", s.tracker.Current.String(), "error", err)
		if kerrors.CodeOf(err) == kerrors.CodeUnknown {
			err = kerrors.Wrap(kerrors.CodeNavigation, "advancing story", s.tracker.Current.String(), err)
		}
		return nil, err
	}

	s.current = l
	s.logger.Debug("advanced",
		"tag", l.Tag().String(),
		"position", s.tracker.Current.String(),
		"depth", s.tracker.Depth(),
	)
	return l, nil
}

func (s *Session) state() *interp.State {
	return &interp.State{Story: s.story, Tracker: s.tracker, Scope: s.scope}
}

// Current returns the line produced by the last Advance, nil before the
// first one and after the position is moved from outside.
func (s *Session) Current() line.Line {
	if s == nil {
		return nil
	}
	return s.current
}

// Tag returns the tag of the current line.
func (s *Session) Tag() line.Tag {
	return line.TagOf(s.Current())
}

// Goto moves to the first line of passage and clears the call stack and the
// current line. Bare names resolve in the current namespace, then the global
// namespace.
func (s *Session) Goto(passage string) error {
	if err := s.ready(); err != nil {
		return err
	}
	ns, name, ok := s.story.ResolvePassage(s.tracker.Current.Namespace, passage)
	if !ok {
		return kerrors.UnknownPassage(passage)
	}
	s.tracker.Goto(ns, name)
	s.current = nil
	s.interp.Reset()
	s.logger.Debug("goto", "position", s.tracker.Current.String())
	return nil
}

// Get reads a variable as seen from the current namespace.
func (s *Session) Get(key string) (value.Value, error) {
	if err := s.ready(); err != nil {
		return value.None(), err
	}
	return s.scope.Get(s.tracker.Current.Namespace, key)
}

// Set writes an existing variable as seen from the current namespace.
func (s *Session) Set(key string, v value.Value) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.scope.Set(s.tracker.Current.Namespace, key, v); err != nil {
		return err
	}
	s.logger.Debug("set", "key", key, "value", v.String())
	return nil
}

// Visible returns every variable readable by bare name from the current
// namespace.
func (s *Session) Visible() (map[string]value.Value, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.scope.Visible(s.tracker.Current.Namespace), nil
}

// Namespace returns the current namespace.
func (s *Session) Namespace() string {
	if s.ready() != nil {
		return ""
	}
	return s.tracker.Current.Namespace
}

// Passage returns the current passage.
func (s *Session) Passage() string {
	if s.ready() != nil {
		return ""
	}
	return s.tracker.Current.Passage
}

// Line returns the current line index.
func (s *Session) Line() int {
	if s.ready() != nil {
		return 0
	}
	return s.tracker.Current.Line
}

// SetLine moves within the current passage. The passage length itself is
// accepted as the past-end position.
func (s *Session) SetLine(i int) error {
	if err := s.ready(); err != nil {
		return err
	}
	cur := s.tracker.Current
	lines, _ := s.story.Lines(cur.Namespace, cur.Passage)
	if i < 0 || i > len(lines) {
		return kerrors.Newf(kerrors.CodeNavigation, "line %d is outside passage %s (%d lines)",
			i, story.Qualify(cur.Namespace, cur.Passage), len(lines))
	}
	s.tracker.SetLine(i)
	s.current = nil
	s.interp.Reset()
	return nil
}

// Position returns the current position.
func (s *Session) Position() position.Position {
	if s.ready() != nil {
		return position.Position{}
	}
	return s.tracker.Current
}

// Stack returns a copy of the call stack, oldest return point first.
func (s *Session) Stack() []position.Position {
	if s.ready() != nil {
		return nil
	}
	return slices.Clone(s.tracker.Stack)
}

// Story returns the loaded story.
func (s *Session) Story() *story.Story {
	if s == nil {
		return nil
	}
	return s.story
}

// Bookmark captures the live state.
func (s *Session) Bookmark() (*bookmark.Bookmark, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return bookmark.Capture(s.tracker, s.scope), nil
}

// SaveBookmark writes the live state to a bookmark file.
func (s *Session) SaveBookmark(path string) error {
	b, err := s.Bookmark()
	if err != nil {
		return err
	}
	if err := b.Save(path); err != nil {
		return kerrors.Wrap(kerrors.CodePersistence, "saving bookmark", path, err)
	}
	s.logger.Debug("bookmark saved", "path", path, "position", s.tracker.Current.String())
	return nil
}

// LoadBookmark replaces the live state with a bookmark file. On failure the
// live state is unchanged.
func (s *Session) LoadBookmark(path string) error {
	if err := s.ready(); err != nil {
		return err
	}
	b, err := bookmark.Load(path)
	if err != nil {
		return kerrors.Wrap(kerrors.CodePersistence, "loading bookmark", path, err)
	}
	if err := s.Apply(b); err != nil {
		var kerr *kerrors.Error
		if errors.As(err, &kerr) && kerr.Code == kerrors.CodePersistence {
			return err
		}
		return kerrors.Wrap(kerrors.CodePersistence, "loading bookmark", path, err)
	}
	s.logger.Debug("bookmark loaded", "path", path, "position", s.tracker.Current.String())
	return nil
}

// Apply replaces the live state with an in-memory bookmark.
func (s *Session) Apply(b *bookmark.Bookmark) error {
	if err := s.ready(); err != nil {
		return err
	}
	tr, sc, err := s.restore(b)
	if err != nil {
		return err
	}
	s.tracker, s.scope = tr, sc
	s.current = nil
	s.interp.Reset()
	return nil
}
