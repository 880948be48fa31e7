// Package boundary adapts a session to a host across a call boundary.
//
// Every call on an Exchange returns borrowed Views into buffers the Exchange
// owns and reuses. Each call invalidates every View returned before it.
// Failures surface as a result string, empty on success; the structured
// error of the last call stays available through Err. Scalar reads (Tag,
// Timeout, Line, Err) are not boundary calls and invalidate nothing.
package boundary

import (
	"github.com/papercomputeco/kataru/pkg/bookmark"
	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/session"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/value"
)

// Exchange owns one session and the buffers its results are lent from.
type Exchange struct {
	session *session.Session
	opts    []session.Option

	gen uint64
	err error

	result   string
	text     string
	value    value.Value
	captions []string
	params   []line.Param
	attrs    []line.Attribute
}

// NewExchange returns an exchange with no session. Options are applied to
// every session it initializes.
func NewExchange(opts ...session.Option) *Exchange {
	return &Exchange{opts: opts}
}

// begin starts a boundary call, invalidating every outstanding view.
func (e *Exchange) begin() {
	e.gen++
}

// finish records err in the result slot and lends it out.
func (e *Exchange) finish(err error) View[string] {
	e.err = err
	e.result = ""
	if err != nil {
		e.result = err.Error()
	}
	return newView(e, e.result)
}

// Err returns the structured error behind the most recent result, nil when
// it was a success.
func (e *Exchange) Err() error {
	return e.err
}

// Generation counts boundary calls.
func (e *Exchange) Generation() uint64 {
	return e.gen
}

// Session returns the owned session, nil before initialization.
func (e *Exchange) Session() *session.Session {
	return e.session
}

// Init loads a story and bookmark from disk and replaces the owned session.
// On failure the previous session, if any, is kept.
func (e *Exchange) Init(storyPath, bookmarkPath string, validate bool) View[string] {
	e.begin()
	s, err := session.Open(storyPath, bookmarkPath, validate, e.opts...)
	if err == nil {
		e.session = s
	}
	return e.finish(err)
}

// InitStory initializes from an already loaded story.
func (e *Exchange) InitStory(st *story.Story, b *bookmark.Bookmark, validate bool) View[string] {
	e.begin()
	s, err := session.New(st, b, validate, e.opts...)
	if err == nil {
		e.session = s
	}
	return e.finish(err)
}

// Advance moves the story and replaces the current line.
func (e *Exchange) Advance(input string) View[string] {
	e.begin()
	_, err := e.session.Advance(input)
	return e.finish(err)
}

// Goto jumps to a passage.
func (e *Exchange) Goto(passage string) View[string] {
	e.begin()
	return e.finish(e.session.Goto(passage))
}

// Get lends the value of a variable together with the result.
func (e *Exchange) Get(key string) (View[value.Value], View[string]) {
	e.begin()
	v, err := e.session.Get(key)
	e.value = v
	return newView(e, e.value), e.finish(err)
}

// Set writes a variable.
func (e *Exchange) Set(key string, v value.Value) View[string] {
	e.begin()
	return e.finish(e.session.Set(key, v))
}

// SaveSnapshot checkpoints the session under label.
func (e *Exchange) SaveSnapshot(label string) View[string] {
	e.begin()
	return e.finish(e.session.SaveSnapshot(label))
}

// LoadSnapshot restores the checkpoint under label.
func (e *Exchange) LoadSnapshot(label string) View[string] {
	e.begin()
	return e.finish(e.session.LoadSnapshot(label))
}

// SaveBookmark persists the session to path.
func (e *Exchange) SaveBookmark(path string) View[string] {
	e.begin()
	return e.finish(e.session.SaveBookmark(path))
}

// LoadBookmark replaces the session state from path.
func (e *Exchange) LoadBookmark(path string) View[string] {
	e.begin()
	return e.finish(e.session.LoadBookmark(path))
}

// SetLine moves within the current passage.
func (e *Exchange) SetLine(i int) View[string] {
	e.begin()
	return e.finish(e.session.SetLine(i))
}

// Namespace lends the current namespace.
func (e *Exchange) Namespace() View[string] {
	e.begin()
	e.text = e.session.Namespace()
	return newView(e, e.text)
}

// Passage lends the current passage.
func (e *Exchange) Passage() View[string] {
	e.begin()
	e.text = e.session.Passage()
	return newView(e, e.text)
}

// Line returns the current line index.
func (e *Exchange) Line() int {
	return e.session.Line()
}

// Tag returns the tag of the current line.
func (e *Exchange) Tag() line.Tag {
	return e.session.Tag()
}

// Timeout returns the advisory timeout of current Choices, 0 otherwise.
func (e *Exchange) Timeout() float64 {
	return line.Or(line.Timeout(e.session.Current()))
}

// Speaker lends the speaker of the current Dialogue, "" otherwise.
func (e *Exchange) Speaker() View[string] {
	e.begin()
	e.text = line.Or(line.Speaker(e.session.Current()))
	return newView(e, e.text)
}

// Text lends the text of the current Dialogue, "" otherwise.
func (e *Exchange) Text() View[string] {
	e.begin()
	e.text = line.Or(line.Text(e.session.Current()))
	return newView(e, e.text)
}

// CommandName lends the name of the current Command, "" otherwise.
func (e *Exchange) CommandName() View[string] {
	e.begin()
	e.text = line.Or(line.CommandName(e.session.Current()))
	return newView(e, e.text)
}

// Captions lends the captions of the current Choices, empty otherwise.
func (e *Exchange) Captions() View[[]string] {
	e.begin()
	e.captions = append(e.captions[:0], line.Or(line.Captions(e.session.Current()))...)
	return newView(e, e.captions)
}

// Params lends the params of the current Command, empty otherwise.
func (e *Exchange) Params() View[[]line.Param] {
	e.begin()
	e.params = append(e.params[:0], line.Or(line.Params(e.session.Current()))...)
	return newView(e, e.params)
}

// Attributes lends the markup attributes of the current Dialogue, empty
// otherwise.
func (e *Exchange) Attributes() View[[]line.Attribute] {
	e.begin()
	e.attrs = append(e.attrs[:0], line.Or(line.Attributes(e.session.Current()))...)
	return newView(e, e.attrs)
}

// Code returns the error code of the last failed call, "" after success.
func (e *Exchange) Code() kerrors.Code {
	return kerrors.CodeOf(e.err)
}
