package interp

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/papercomputeco/kataru/pkg/scope"
	"github.com/papercomputeco/kataru/pkg/story"
)

// Issue is one problem found by Validate.
type Issue struct {
	Namespace string
	Passage   string
	Line      int
	Message   string
}

func (i Issue) String() string {
	if i.Passage == "" {
		return fmt.Sprintf("%s: %s", i.Namespace, i.Message)
	}
	return fmt.Sprintf("%s:%s#%d: %s", i.Namespace, i.Passage, i.Line, i.Message)
}

// ValidationError collects every issue found in a story.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid story: " + e.Issues[0].String()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("invalid story: %d issues:\n  %s", len(e.Issues), strings.Join(parts, "\n  "))
}

// Validate checks a story statically: every line has exactly one kind,
// every passage target resolves, every assigned variable is declared and
// every expression compiles against the declared state. It returns a
// *ValidationError listing all issues, or nil.
func Validate(s *story.Story) error {
	v := &validator{story: s, scope: scope.FromStory(s)}

	if s.Start != "" {
		if _, _, ok := s.ResolvePassage(story.GlobalNamespace, s.Start); !ok {
			v.add(Issue{Namespace: story.GlobalNamespace, Message: fmt.Sprintf("start passage %q not found", s.Start)})
		}
	}
	for _, ns := range s.NamespaceNames() {
		n, ok := s.Namespace(ns)
		if !ok || (ns != story.GlobalNamespace && len(n.Passages) == 0 && len(n.State) == 0 && len(n.Commands) == 0) {
			if ns != story.GlobalNamespace {
				v.add(Issue{Namespace: ns, Message: "namespace is empty"})
			}
			continue
		}
		for _, passage := range n.PassageNames() {
			for i, l := range n.Passages[passage] {
				v.line(ns, passage, i, l)
			}
		}
	}

	if len(v.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: v.issues}
}

type validator struct {
	story  *story.Story
	scope  *scope.Store
	issues []Issue
}

func (v *validator) add(issue Issue) {
	v.issues = append(v.issues, issue)
}

func (v *validator) line(ns, passage string, idx int, l story.Line) {
	report := func(format string, args ...any) {
		v.add(Issue{Namespace: ns, Passage: passage, Line: idx, Message: fmt.Sprintf(format, args...)})
	}
	target := func(name string) {
		if _, _, ok := v.story.ResolvePassage(ns, name); !ok {
			report("passage %q not found", name)
		}
	}
	cond := func(exprStr string) {
		if err := v.compile(ns, exprStr); err != nil {
			report("%v", err)
		}
	}

	switch l.Kind() {
	case story.KindChoices:
		if len(l.Choices.Options) == 0 {
			report("choices have no options")
		}
		for _, opt := range l.Choices.Options {
			target(opt.Target)
			cond(opt.If)
		}
		if l.Choices.Default != "" {
			target(l.Choices.Default)
		}
		if l.Choices.Timeout < 0 {
			report("negative choice timeout %g", l.Choices.Timeout)
		}
	case story.KindCommand:
		if l.Command.Name == "" {
			report("command has no name")
		}
	case story.KindSet:
		for _, a := range l.Set {
			if _, _, ok := v.scope.Resolve(ns, a.Var); !ok {
				report("variable %q is not declared", a.Var)
			}
			switch a.Op {
			case "", "=", "+=", "-=":
			default:
				report("unknown operator %q", a.Op)
			}
		}
	case story.KindBranch:
		cond(l.Branch.If)
		if l.Branch.Then != "" {
			target(l.Branch.Then)
		}
		if l.Branch.Else != "" {
			target(l.Branch.Else)
		}
	case story.KindCall:
		target(l.Call)
	case story.KindGoto:
		target(l.Goto)
	case story.KindInvalid:
		report("line must set exactly one of dialogue, choices, command, set, branch, call, goto, return or end")
	}
}

func (v *validator) compile(ns, exprStr string) error {
	exprStr = strings.TrimSpace(exprStr)
	if exprStr == "" {
		return nil
	}
	vars := make(map[string]any)
	for name, val := range v.scope.Visible(ns) {
		vars[name] = val.Interface()
	}
	if _, err := expr.Compile(exprStr, expr.Env(vars), expr.AsBool()); err != nil {
		return fmt.Errorf("compile condition %q: %w", exprStr, err)
	}
	return nil
}
