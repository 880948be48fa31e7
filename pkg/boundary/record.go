package boundary

import (
	"slices"

	"github.com/papercomputeco/kataru/pkg/line"
)

// Record is a caller-owned copy of the position and current line. It stays
// valid across boundary calls.
type Record struct {
	Namespace  string           `json:"namespace"`
	Passage    string           `json:"passage"`
	Line       int              `json:"line"`
	Tag        string           `json:"tag"`
	Speaker    string           `json:"speaker,omitempty"`
	Text       string           `json:"text,omitempty"`
	Attributes []line.Attribute `json:"attributes,omitempty"`
	Captions   []string         `json:"captions,omitempty"`
	Timeout    float64          `json:"timeout,omitempty"`
	Command    string           `json:"command,omitempty"`
	Params     []line.Param     `json:"params,omitempty"`
}

// Copy reads the position and every field of the current line through
// views, copying each out before the next call invalidates it. Copy is a
// sequence of boundary calls; views taken before it are invalid after.
func (e *Exchange) Copy() Record {
	r := Record{
		Line:    e.Line(),
		Tag:     e.Tag().String(),
		Timeout: e.Timeout(),
	}

	r.Namespace, _ = e.Namespace().Get()
	r.Passage, _ = e.Passage().Get()

	switch e.Tag() {
	case line.TagDialogue:
		r.Speaker, _ = e.Speaker().Get()
		r.Text, _ = e.Text().Get()
		Borrow(e.Attributes(), func(attrs []line.Attribute) {
			r.Attributes = make([]line.Attribute, len(attrs))
			for i, a := range attrs {
				r.Attributes[i] = line.Attribute{Name: a.Name, Positions: slices.Clone(a.Positions)}
			}
		})
	case line.TagChoices:
		r.Captions, _ = Clone(e.Captions())
	case line.TagCommand:
		r.Command, _ = e.CommandName().Get()
		r.Params, _ = Clone(e.Params())
	}
	return r
}
