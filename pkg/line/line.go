// Package line defines the typed result of advancing a story: the current
// line projection a host polls after every advance.
//
// Line is a closed sum type. Hosts should switch on the concrete type; the
// package-level accessors exist for polling code and return ok=false (with a
// zero payload) when asked about the wrong variant.
package line

import (
	"fmt"
	"slices"

	"github.com/papercomputeco/kataru/pkg/value"
)

// Tag discriminates line variants across the boundary.
type Tag int

const (
	// TagNone means no line has been produced yet.
	TagNone Tag = iota
	TagDialogue
	TagChoices
	TagCommand
	TagInvalidChoice
	TagEnd
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagDialogue:
		return "dialogue"
	case TagChoices:
		return "choices"
	case TagCommand:
		return "command"
	case TagInvalidChoice:
		return "invalid_choice"
	case TagEnd:
		return "end"
	default:
		return fmt.Sprintf("tag(%d)", int(t))
	}
}

// Line is implemented only by the variants in this package.
type Line interface {
	Tag() Tag
	sealed()
}

// Dialogue is a line of speech. Attribute positions are rune offsets into
// Text produced upstream; they are opaque markers and are not validated.
type Dialogue struct {
	Speaker    string
	Text       string
	Attributes []Attribute
}

// Attribute is one markup attribute and its offsets, in order of first use.
type Attribute struct {
	Name      string `json:"name"`
	Positions []int  `json:"positions"`
}

// Choices lists the captions the host may answer with. Targets are withheld.
type Choices struct {
	Captions []string
	// Timeout is advisory seconds; 0 means no timeout.
	Timeout float64
}

// Command asks the host to run a command with ordered parameters.
type Command struct {
	Name   string
	Params []Param
}

// Param is a named command parameter.
type Param struct {
	Name  string      `json:"name"`
	Value value.Value `json:"value"`
}

// InvalidChoice reports host input that matched no caption of the pending
// Choices. The story does not move.
type InvalidChoice struct {
	Input string
}

// End is terminal: advancing again yields End until the host navigates.
type End struct{}

func (Dialogue) Tag() Tag      { return TagDialogue }
func (Choices) Tag() Tag       { return TagChoices }
func (Command) Tag() Tag       { return TagCommand }
func (InvalidChoice) Tag() Tag { return TagInvalidChoice }
func (End) Tag() Tag           { return TagEnd }

func (Dialogue) sealed()      {}
func (Choices) sealed()       {}
func (Command) sealed()       {}
func (InvalidChoice) sealed() {}
func (End) sealed()           {}

// TagOf returns l's tag, TagNone for nil.
func TagOf(l Line) Tag {
	if l == nil {
		return TagNone
	}
	return l.Tag()
}

// Clone deep-copies l so the copy shares no slices with it.
func Clone(l Line) Line {
	switch t := l.(type) {
	case Dialogue:
		attrs := make([]Attribute, len(t.Attributes))
		for i, a := range t.Attributes {
			attrs[i] = Attribute{Name: a.Name, Positions: slices.Clone(a.Positions)}
		}
		t.Attributes = attrs
		return t
	case Choices:
		t.Captions = slices.Clone(t.Captions)
		return t
	case Command:
		t.Params = slices.Clone(t.Params)
		return t
	default:
		return l
	}
}
