package story

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/kataru/pkg/value"
)

// LineKind identifies which field of a Line is set.
type LineKind int

const (
	KindInvalid LineKind = iota
	KindDialogue
	KindChoices
	KindCommand
	KindSet
	KindBranch
	KindCall
	KindGoto
	KindReturn
	KindEnd
)

var lineKindNames = map[LineKind]string{
	KindInvalid:  "invalid",
	KindDialogue: "dialogue",
	KindChoices:  "choices",
	KindCommand:  "command",
	KindSet:      "set",
	KindBranch:   "branch",
	KindCall:     "call",
	KindGoto:     "goto",
	KindReturn:   "return",
	KindEnd:      "end",
}

func (k LineKind) String() string {
	if name, ok := lineKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Line is a single story line. Exactly one field is set.
type Line struct {
	Dialogue *Dialogue    `yaml:"dialogue,omitempty"`
	Choices  *Choices     `yaml:"choices,omitempty"`
	Command  *Command     `yaml:"command,omitempty"`
	Set      []Assignment `yaml:"set,omitempty"`
	Branch   *Branch      `yaml:"branch,omitempty"`
	Call     string       `yaml:"call,omitempty"`
	Goto     string       `yaml:"goto,omitempty"`
	Return   bool         `yaml:"return,omitempty"`
	End      bool         `yaml:"end,omitempty"`
}

// Dialogue is a line of speech. An empty speaker is narration.
type Dialogue struct {
	Speaker string `yaml:"speaker,omitempty"`
	Text    string `yaml:"text"`
}

// Choices presents options to the host. Targets never cross the boundary.
type Choices struct {
	// Timeout is advisory seconds for the host; 0 means no timeout.
	Timeout float64 `yaml:"timeout,omitempty"`

	// Default is the target taken when the host advances with empty input.
	Default string `yaml:"default,omitempty"`

	Options []Choice `yaml:"options"`
}

// Choice is a caption leading to a target passage, optionally guarded by an
// expression.
type Choice struct {
	Caption string `yaml:"caption"`
	Target  string `yaml:"target"`
	If      string `yaml:"if,omitempty"`
}

// Command asks the host to invoke a named command.
type Command struct {
	Name   string `yaml:"name"`
	Params Params `yaml:"params,omitempty"`
}

// Assignment mutates one variable. Op is "=", "+=" or "-="; empty means "=".
type Assignment struct {
	Var   string      `yaml:"var"`
	Op    string      `yaml:"op,omitempty"`
	Value value.Value `yaml:"value"`
}

// Branch calls Then when If evaluates true and Else otherwise. Either target
// may be empty, in which case the branch falls through.
type Branch struct {
	If   string `yaml:"if"`
	Then string `yaml:"then,omitempty"`
	Else string `yaml:"else,omitempty"`
}

// Kind returns which field is set, or KindInvalid when none or several are.
func (l Line) Kind() LineKind {
	kind := KindInvalid
	set := 0
	mark := func(present bool, k LineKind) {
		if present {
			set++
			kind = k
		}
	}
	mark(l.Dialogue != nil, KindDialogue)
	mark(l.Choices != nil, KindChoices)
	mark(l.Command != nil, KindCommand)
	mark(len(l.Set) > 0, KindSet)
	mark(l.Branch != nil, KindBranch)
	mark(l.Call != "", KindCall)
	mark(l.Goto != "", KindGoto)
	mark(l.Return, KindReturn)
	mark(l.End, KindEnd)
	if set != 1 {
		return KindInvalid
	}
	return kind
}

type rawLine Line

var lineKeys = map[string]bool{
	"dialogue": true, "choices": true, "command": true, "set": true,
	"branch": true, "call": true, "goto": true, "return": true, "end": true,
}

// UnmarshalYAML accepts the structured form plus two shorthands: a bare
// scalar is narration ("end" and "return" are keywords), and a single-key
// mapping whose key is not a line keyword is "Speaker: text".
func (l *Line) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Value {
		case "end":
			*l = Line{End: true}
		case "return":
			*l = Line{Return: true}
		default:
			*l = Line{Dialogue: &Dialogue{Text: node.Value}}
		}
		return nil

	case yaml.MappingNode:
		if len(node.Content) == 2 && !lineKeys[node.Content[0].Value] {
			key, val := node.Content[0], node.Content[1]
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: dialogue for %q must be text", val.Line, key.Value)
			}
			*l = Line{Dialogue: &Dialogue{Speaker: key.Value, Text: val.Value}}
			return nil
		}
		var raw rawLine
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*l = Line(raw)
		return nil

	default:
		return fmt.Errorf("line %d: a story line must be text or a mapping", node.Line)
	}
}

// Param is one named command parameter.
type Param struct {
	Name  string
	Value value.Value
}

// Params is an ordered parameter list. In YAML it is a mapping whose key
// order is preserved.
type Params []Param

// Get returns the named parameter.
func (p Params) Get(name string) (value.Value, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return value.None(), false
}

// UnmarshalYAML walks the mapping node in document order.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: params must be a mapping", node.Line)
	}
	params := make(Params, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v value.Value
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("param %q: %w", node.Content[i].Value, err)
		}
		params = append(params, Param{Name: node.Content[i].Value, Value: v})
	}
	*p = params
	return nil
}

// MarshalYAML emits a mapping node in list order.
func (p Params) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, param := range p {
		var val yaml.Node
		if err := val.Encode(param.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: param.Name},
			&val,
		)
	}
	return node, nil
}
