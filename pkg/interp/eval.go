package interp

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"

	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/value"
)

// env exposes every variable visible from the current namespace to
// expressions, by bare name.
func env(st *State) map[string]any {
	vars := st.Scope.Visible(st.Tracker.Current.Namespace)
	out := make(map[string]any, len(vars))
	for name, v := range vars {
		out[name] = v.Interface()
	}
	return out
}

// condition evaluates a boolean expression. An empty expression is true.
func condition(st *State, exprStr string) (bool, error) {
	exprStr = strings.TrimSpace(exprStr)
	if exprStr == "" {
		return true, nil
	}

	vars := env(st)
	program, err := expr.Compile(exprStr, expr.Env(vars), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", exprStr, err)
	}
	output, err := expr.Run(program, vars)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", exprStr, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool (got %T)", exprStr, output)
	}
	return result, nil
}

// visible returns the options whose guards hold.
func visible(st *State, c *story.Choices) ([]story.Choice, error) {
	out := make([]story.Choice, 0, len(c.Options))
	for _, opt := range c.Options {
		ok, err := condition(st, opt.If)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, opt)
		}
	}
	return out, nil
}

func present(st *State, c *story.Choices) (line.Choices, error) {
	options, err := visible(st, c)
	if err != nil {
		return line.Choices{}, err
	}
	captions := make([]string, len(options))
	for i, opt := range options {
		captions[i] = opt.Caption
	}
	return line.Choices{Captions: captions, Timeout: c.Timeout}, nil
}

func dialogue(st *State, d *story.Dialogue) (line.Dialogue, error) {
	text, attrs := ParseMarkup(d.Text)
	text, subs, err := interpolate(st, text)
	if err != nil {
		return line.Dialogue{}, err
	}
	for i := range attrs {
		for j, p := range attrs[i].Positions {
			attrs[i].Positions[j] = shift(p, subs)
		}
	}
	return line.Dialogue{Speaker: d.Speaker, Text: text, Attributes: attrs}, nil
}

// substitution records a ${name} placeholder of width runes at rune offset
// at in the source text, replaced by size runes.
type substitution struct {
	at, width, size int
}

// interpolate replaces ${name} with the text of a visible variable. Values
// are inserted verbatim; markup inside them is not interpreted.
func interpolate(st *State, text string) (string, []substitution, error) {
	if !strings.Contains(text, "${") {
		return text, nil, nil
	}
	var (
		b    strings.Builder
		subs []substitution
		pos  int
	)
	rest := text
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			return b.String(), subs, nil
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			b.WriteString(rest)
			return b.String(), subs, nil
		}
		b.WriteString(rest[:start])
		pos += utf8.RuneCountInString(rest[:start])

		placeholder := rest[start : start+end+1]
		key := strings.TrimSpace(rest[start+2 : start+end])
		v, err := st.Scope.Get(st.Tracker.Current.Namespace, key)
		if err != nil {
			return "", nil, err
		}
		val := v.Text()
		b.WriteString(val)
		subs = append(subs, substitution{
			at:    pos,
			width: utf8.RuneCountInString(placeholder),
			size:  utf8.RuneCountInString(val),
		})
		pos += utf8.RuneCountInString(placeholder)
		rest = rest[start+end+1:]
	}
}

// shift maps a rune offset in the source text to the interpolated text. An
// offset inside a placeholder maps to the start of its value.
func shift(p int, subs []substitution) int {
	delta := 0
	for _, s := range subs {
		switch {
		case p >= s.at+s.width:
			delta += s.size - s.width
		case p > s.at:
			return s.at + delta
		default:
			return p + delta
		}
	}
	return p + delta
}

// command merges declared defaults with the params given on the line.
// Declared params keep declaration order; extra params follow in line order.
func command(st *State, c *story.Command) (line.Command, error) {
	declared := declaration(st, c.Name)
	params := make([]line.Param, 0, len(declared)+len(c.Params))
	for _, d := range declared {
		v := d.Value
		if given, ok := c.Params.Get(d.Name); ok {
			v = given
		}
		params = append(params, line.Param{Name: d.Name, Value: v})
	}
	for _, p := range c.Params {
		if _, ok := declared.Get(p.Name); ok {
			continue
		}
		params = append(params, line.Param{Name: p.Name, Value: p.Value})
	}

	for i, p := range params {
		v, err := deref(st, p.Value)
		if err != nil {
			return line.Command{}, fmt.Errorf("command %q param %q: %w", c.Name, p.Name, err)
		}
		params[i].Value = v
	}
	return line.Command{Name: c.Name, Params: params}, nil
}

// declaration finds the command's declared params in the current namespace
// and then the global namespace.
func declaration(st *State, name string) story.Params {
	for _, ns := range []string{st.Tracker.Current.Namespace, story.GlobalNamespace} {
		n, ok := st.Story.Namespace(ns)
		if !ok {
			continue
		}
		if params, ok := n.Commands[name]; ok {
			return params
		}
	}
	return nil
}

// deref resolves "$name" strings against the scope store.
func deref(st *State, v value.Value) (value.Value, error) {
	s, ok := v.AsString()
	if !ok || len(s) < 2 || s[0] != '$' {
		return v, nil
	}
	return st.Scope.Get(st.Tracker.Current.Namespace, s[1:])
}

// assign applies a set line. Every assignment is checked before any is
// applied, so a failing line leaves the store untouched.
func assign(st *State, set []story.Assignment) error {
	ns := st.Tracker.Current.Namespace
	next := make([]value.Value, len(set))
	for i, a := range set {
		cur, err := st.Scope.Get(ns, a.Var)
		if err != nil {
			return err
		}
		rhs, err := deref(st, a.Value)
		if err != nil {
			return err
		}
		v, err := apply(cur, a.Op, rhs)
		if err != nil {
			return fmt.Errorf("set %q: %w", a.Var, err)
		}
		next[i] = v
	}
	for i, a := range set {
		if err := st.Scope.Set(ns, a.Var, next[i]); err != nil {
			return err
		}
	}
	return nil
}

func apply(cur value.Value, op string, rhs value.Value) (value.Value, error) {
	switch op {
	case "", "=":
		return rhs, nil
	case "+=", "-=":
		a, okA := cur.AsNumber()
		b, okB := rhs.AsNumber()
		if !okA || !okB {
			if s, ok := cur.AsString(); ok && op == "+=" {
				if t, ok := rhs.AsString(); ok {
					return value.String(s + t), nil
				}
			}
			return value.None(), kerrors.Newf(kerrors.CodeNavigation, "cannot apply %s to %s and %s", op, cur.Kind(), rhs.Kind())
		}
		if op == "-=" {
			b = -b
		}
		return value.Number(a + b), nil
	default:
		return value.None(), fmt.Errorf("unknown operator %q", op)
	}
}
