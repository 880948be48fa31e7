// Package scenario runs Lua playthrough scripts against a session. A script
// drives the story through the kataru global and records expectations:
//
//	kataru.go("Room1:Start")
//	local l = kataru.next()
//	kataru.expect(l.tag == "command" and l.name == "give", "gives first")
//	kataru.set("var", true)
//	kataru.snapshot("before")
//
// The kataru table provides next, run, go, get, set, snapshot, restore,
// line, expect and log. Lua reserves "goto", so jumps are spelled go.
package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Shopify/go-lua"

	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/logger"
	"github.com/papercomputeco/kataru/pkg/session"
	"github.com/papercomputeco/kataru/pkg/value"
)

// Result summarizes a scenario run.
type Result struct {
	Name         string
	Advances     int
	Expectations int
	Failures     []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Option configures a run.
type Option func(*runner)

// WithLogger receives kataru.log output and run progress.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		r.logger = l
	}
}

type runner struct {
	ctx     context.Context
	session *session.Session
	cfg     Config
	logger  *slog.Logger
	result  *Result
}

// errFailFast aborts the script after a failed expectation.
const errFailFast = "scenario stopped at first failed expectation"

// Run executes the script at path.
func Run(ctx context.Context, s *session.Session, path string, cfg Config, opts ...Option) (*Result, error) {
	return run(ctx, s, path, cfg, opts, func(state *lua.State) error {
		return lua.LoadFile(state, path, "")
	})
}

// RunString executes script source under a chunk name.
func RunString(ctx context.Context, s *session.Session, name, source string, cfg Config, opts ...Option) (*Result, error) {
	return run(ctx, s, name, cfg, opts, func(state *lua.State) error {
		return lua.LoadBuffer(state, source, name, "")
	})
}

func run(ctx context.Context, s *session.Session, name string, cfg Config, opts []Option, load func(*lua.State) error) (*Result, error) {
	r := &runner{
		ctx:     ctx,
		session: s,
		cfg:     cfg,
		logger:  logger.Nop(),
		result:  &Result{Name: name},
	}
	for _, opt := range opts {
		opt(r)
	}

	state := lua.NewState()
	lua.OpenLibraries(state)
	r.register(state)

	if err := load(state); err != nil {
		return r.result, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		if cfg.FailFast && !r.result.Passed() {
			return r.result, nil
		}
		return r.result, fmt.Errorf("run lua: %w", err)
	}

	r.logger.Debug("scenario finished",
		"name", name,
		"advances", r.result.Advances,
		"expectations", r.result.Expectations,
		"failures", len(r.result.Failures),
	)
	return r.result, nil
}

func (r *runner) register(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{
		{Name: "next", Function: r.next},
		{Name: "run", Function: r.runUntilChoice},
		{Name: "go", Function: r.jump},
		{Name: "get", Function: r.get},
		{Name: "set", Function: r.set},
		{Name: "snapshot", Function: r.snapshot},
		{Name: "restore", Function: r.restore},
		{Name: "line", Function: r.position},
		{Name: "expect", Function: r.expect},
		{Name: "log", Function: r.log},
	}, 0)
	state.SetGlobal("kataru")
}

// raise reports err as a Lua error. It does not return.
func raise(state *lua.State, err error) {
	lua.Errorf(state, "%s", err.Error())
}

func (r *runner) advance(state *lua.State) {
	if err := r.ctx.Err(); err != nil {
		raise(state, err)
	}
	if r.result.Advances >= r.cfg.MaxAdvances {
		lua.Errorf(state, "scenario exceeded %d advances", r.cfg.MaxAdvances)
	}
	r.result.Advances++
}

func (r *runner) next(state *lua.State) int {
	input := lua.OptString(state, 1, "")
	r.advance(state)
	l, err := r.session.Advance(input)
	if err != nil {
		raise(state, err)
	}
	pushLine(state, l)
	return 1
}

func (r *runner) runUntilChoice(state *lua.State) int {
	input := lua.OptString(state, 1, "")
	state.NewTable()
	for i := 1; ; i++ {
		r.advance(state)
		l, err := r.session.Advance(input)
		if err != nil {
			raise(state, err)
		}
		pushLine(state, l)
		state.RawSetInt(-2, i)
		switch l.(type) {
		case line.Choices, line.InvalidChoice, line.End:
			return 1
		}
		input = ""
	}
}

func (r *runner) jump(state *lua.State) int {
	if err := r.session.Goto(lua.CheckString(state, 1)); err != nil {
		raise(state, err)
	}
	return 0
}

func (r *runner) get(state *lua.State) int {
	v, err := r.session.Get(lua.CheckString(state, 1))
	if err != nil {
		raise(state, err)
	}
	pushValue(state, v)
	return 1
}

func (r *runner) set(state *lua.State) int {
	key := lua.CheckString(state, 1)
	lua.CheckAny(state, 2)
	if err := r.session.Set(key, toValue(state, 2)); err != nil {
		raise(state, err)
	}
	return 0
}

func (r *runner) snapshot(state *lua.State) int {
	if err := r.session.SaveSnapshot(lua.OptString(state, 1, r.cfg.Snapshot)); err != nil {
		raise(state, err)
	}
	return 0
}

func (r *runner) restore(state *lua.State) int {
	if err := r.session.LoadSnapshot(lua.OptString(state, 1, r.cfg.Snapshot)); err != nil {
		raise(state, err)
	}
	return 0
}

func (r *runner) position(state *lua.State) int {
	p := r.session.Position()
	state.PushString(p.Namespace)
	state.PushString(p.Passage)
	state.PushInteger(p.Line)
	return 3
}

func (r *runner) expect(state *lua.State) int {
	lua.CheckAny(state, 1)
	ok := state.ToBoolean(1)
	message := lua.OptString(state, 2, "expectation failed")
	r.result.Expectations++
	if ok {
		return 0
	}

	lua.Where(state, 1)
	where, _ := state.ToString(-1)
	state.Pop(1)
	failure := where + message
	r.result.Failures = append(r.result.Failures, failure)
	r.logger.Warn("expectation failed", "at", where, "message", message)

	if r.cfg.FailFast {
		lua.Errorf(state, errFailFast)
	}
	return 0
}

func (r *runner) log(state *lua.State) int {
	r.logger.Info(lua.CheckString(state, 1), "scenario", r.result.Name)
	return 0
}

func pushValue(state *lua.State, v value.Value) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		state.PushString(s)
	case value.KindNumber:
		n, _ := v.AsNumber()
		state.PushNumber(n)
	case value.KindBool:
		b, _ := v.AsBool()
		state.PushBoolean(b)
	default:
		state.PushNil()
	}
}

func toValue(state *lua.State, index int) value.Value {
	switch state.TypeOf(index) {
	case lua.TypeString:
		s, _ := state.ToString(index)
		return value.String(s)
	case lua.TypeNumber:
		n, _ := state.ToNumber(index)
		return value.Number(n)
	case lua.TypeBoolean:
		return value.Bool(state.ToBoolean(index))
	case lua.TypeNil, lua.TypeNone:
		return value.None()
	default:
		lua.ArgumentError(state, index, "string, number, boolean or nil expected")
		return value.None()
	}
}

func pushStrings(state *lua.State, items []string) {
	state.NewTable()
	for i, item := range items {
		state.PushString(item)
		state.RawSetInt(-2, i+1)
	}
}

// pushLine pushes a table describing l, keyed by tag.
func pushLine(state *lua.State, l line.Line) {
	state.NewTable()
	state.PushString(line.TagOf(l).String())
	state.SetField(-2, "tag")

	switch t := l.(type) {
	case line.Dialogue:
		state.PushString(t.Speaker)
		state.SetField(-2, "speaker")
		state.PushString(t.Text)
		state.SetField(-2, "text")
		state.NewTable()
		for _, attr := range t.Attributes {
			state.NewTable()
			for i, pos := range attr.Positions {
				state.PushInteger(pos)
				state.RawSetInt(-2, i+1)
			}
			state.SetField(-2, attr.Name)
		}
		state.SetField(-2, "attributes")
	case line.Choices:
		pushStrings(state, t.Captions)
		state.SetField(-2, "captions")
		state.PushNumber(t.Timeout)
		state.SetField(-2, "timeout")
	case line.Command:
		state.PushString(t.Name)
		state.SetField(-2, "name")
		state.NewTable()
		for _, p := range t.Params {
			pushValue(state, p.Value)
			state.SetField(-2, p.Name)
		}
		state.SetField(-2, "params")
	case line.InvalidChoice:
		state.PushString(t.Input)
		state.SetField(-2, "input")
	}
}
