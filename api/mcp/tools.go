package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/kataru/pkg/boundary"
	"github.com/papercomputeco/kataru/pkg/value"
)

var (
	openToolName    = "open_session"
	openDescription = "Open a new story session at the story start. Returns the session id and the first line."

	advanceToolName    = "advance"
	advanceDescription = "Advance a session by one line. Pass the caption of a choice as input when the current line offers choices."

	gotoToolName    = "goto"
	gotoDescription = "Jump a session to a passage, given as \"passage\" or \"namespace:passage\". The call stack is cleared."

	getToolName    = "get_variable"
	getDescription = "Read a story variable visible from the session's current namespace."

	setToolName    = "set_variable"
	setDescription = "Assign a declared story variable. The value must be a string, number, boolean or null."

	snapshotToolName    = "save_snapshot"
	snapshotDescription = "Save the session's variables and position under a label."

	restoreToolName    = "restore_snapshot"
	restoreDescription = "Restore a labelled snapshot into the session, replacing its variables and position."

	closeToolName    = "close_session"
	closeDescription = "Close a session and release it."
)

// SessionInput addresses an open session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"the id returned by open_session"`
}

// OpenInput is the input of the open_session tool.
type OpenInput struct{}

// AdvanceInput is the input of the advance tool.
type AdvanceInput struct {
	SessionID string `json:"session_id" jsonschema:"the id returned by open_session"`
	Input     string `json:"input,omitempty" jsonschema:"choice caption to select, empty to continue"`
}

// GotoInput is the input of the goto tool.
type GotoInput struct {
	SessionID string `json:"session_id" jsonschema:"the id returned by open_session"`
	Passage   string `json:"passage" jsonschema:"passage to jump to"`
}

// GetInput is the input of the get_variable tool.
type GetInput struct {
	SessionID string `json:"session_id" jsonschema:"the id returned by open_session"`
	Key       string `json:"key" jsonschema:"variable name, optionally qualified as namespace:name"`
}

// SetInput is the input of the set_variable tool.
type SetInput struct {
	SessionID string `json:"session_id" jsonschema:"the id returned by open_session"`
	Key       string `json:"key" jsonschema:"variable name, optionally qualified as namespace:name"`
	Value     any    `json:"value" jsonschema:"new value"`
}

// SnapshotInput is the input of the snapshot tools.
type SnapshotInput struct {
	SessionID string `json:"session_id" jsonschema:"the id returned by open_session"`
	Label     string `json:"label" jsonschema:"snapshot label"`
}

// LineOutput is the position and current line of a session.
type LineOutput struct {
	Namespace  string           `json:"namespace"`
	Passage    string           `json:"passage"`
	Line       int              `json:"line"`
	Tag        string           `json:"tag"`
	Speaker    string           `json:"speaker,omitempty"`
	Text       string           `json:"text,omitempty"`
	Attributes map[string][]int `json:"attributes,omitempty"`
	Captions   []string         `json:"captions,omitempty"`
	Timeout    float64          `json:"timeout,omitempty"`
	Command    string           `json:"command,omitempty"`
	Params     map[string]any   `json:"params,omitempty"`
}

// SessionOutput is returned by the tools that move a session.
type SessionOutput struct {
	SessionID string     `json:"session_id"`
	Line      LineOutput `json:"line"`
}

// VariableOutput is returned by the variable tools.
type VariableOutput struct {
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// AckOutput is returned by tools with nothing else to report.
type AckOutput struct {
	SessionID string `json:"session_id"`
	Label     string `json:"label,omitempty"`
	OK        bool   `json:"ok"`
}

func lineOutput(rec boundary.Record) LineOutput {
	out := LineOutput{
		Namespace: rec.Namespace,
		Passage:   rec.Passage,
		Line:      rec.Line,
		Tag:       rec.Tag,
		Speaker:   rec.Speaker,
		Text:      rec.Text,
		Captions:  rec.Captions,
		Timeout:   rec.Timeout,
		Command:   rec.Command,
	}
	if len(rec.Attributes) > 0 {
		out.Attributes = make(map[string][]int, len(rec.Attributes))
		for _, attr := range rec.Attributes {
			out.Attributes[attr.Name] = attr.Positions
		}
	}
	if len(rec.Params) > 0 {
		out.Params = make(map[string]any, len(rec.Params))
		for _, p := range rec.Params {
			out.Params[p.Name] = p.Value.Interface()
		}
	}
	return out
}

// toolError reports a failure to the calling agent as a tool result, not a
// protocol error.
func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// textResult serializes the structured output into a TextContent block for
// clients that ignore structured content.
func textResult(output any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil
}

func parseSession(raw string) (uuid.UUID, *mcp.CallToolResult) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, toolError("Invalid session id %q: %v", raw, err)
	}
	return id, nil
}

func (s *Server) sessionResult(id uuid.UUID, rec boundary.Record, err error) (*mcp.CallToolResult, SessionOutput, error) {
	if err != nil {
		s.config.Logger.Debug("MCP session call failed", "session", id.String(), "error", err)
		return toolError("Session %s: %v", id, err), SessionOutput{}, nil
	}
	output := SessionOutput{SessionID: id.String(), Line: lineOutput(rec)}
	result, err := textResult(output)
	if err != nil {
		return toolError("Failed to serialize line: %v", err), SessionOutput{}, nil
	}
	return result, output, nil
}

func (s *Server) ack(id uuid.UUID, label string, err error) (*mcp.CallToolResult, AckOutput, error) {
	if err != nil {
		s.config.Logger.Debug("MCP session call failed", "session", id.String(), "error", err)
		return toolError("Session %s: %v", id, err), AckOutput{}, nil
	}
	output := AckOutput{SessionID: id.String(), Label: label, OK: true}
	result, err := textResult(output)
	if err != nil {
		return toolError("Failed to serialize result: %v", err), AckOutput{}, nil
	}
	return result, output, nil
}

func (s *Server) handleOpen(ctx context.Context, _ *mcp.CallToolRequest, _ OpenInput) (*mcp.CallToolResult, SessionOutput, error) {
	id, rec, err := s.config.Host.Open(ctx, nil)
	if err != nil {
		return toolError("Failed to open session: %v", err), SessionOutput{}, nil
	}
	s.config.Logger.Debug("MCP session opened", "session", id.String())
	return s.sessionResult(id, rec, nil)
}

func (s *Server) handleAdvance(ctx context.Context, _ *mcp.CallToolRequest, input AdvanceInput) (*mcp.CallToolResult, SessionOutput, error) {
	id, bad := parseSession(input.SessionID)
	if bad != nil {
		return bad, SessionOutput{}, nil
	}
	rec, err := s.config.Host.Advance(ctx, id, input.Input)
	return s.sessionResult(id, rec, err)
}

func (s *Server) handleGoto(ctx context.Context, _ *mcp.CallToolRequest, input GotoInput) (*mcp.CallToolResult, SessionOutput, error) {
	id, bad := parseSession(input.SessionID)
	if bad != nil {
		return bad, SessionOutput{}, nil
	}
	if input.Passage == "" {
		return toolError("passage is required"), SessionOutput{}, nil
	}
	rec, err := s.config.Host.Goto(ctx, id, input.Passage)
	return s.sessionResult(id, rec, err)
}

func (s *Server) handleGet(_ context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, VariableOutput, error) {
	id, bad := parseSession(input.SessionID)
	if bad != nil {
		return bad, VariableOutput{}, nil
	}
	v, err := s.config.Host.Get(id, input.Key)
	if err != nil {
		return toolError("Session %s: %v", id, err), VariableOutput{}, nil
	}
	return variableResult(input.Key, v)
}

func (s *Server) handleSet(ctx context.Context, _ *mcp.CallToolRequest, input SetInput) (*mcp.CallToolResult, VariableOutput, error) {
	id, bad := parseSession(input.SessionID)
	if bad != nil {
		return bad, VariableOutput{}, nil
	}
	v, err := value.FromInterface(input.Value)
	if err != nil {
		return toolError("Invalid value for %s: %v", input.Key, err), VariableOutput{}, nil
	}
	if err := s.config.Host.Set(ctx, id, input.Key, v); err != nil {
		return toolError("Session %s: %v", id, err), VariableOutput{}, nil
	}
	return variableResult(input.Key, v)
}

func variableResult(key string, v value.Value) (*mcp.CallToolResult, VariableOutput, error) {
	output := VariableOutput{Key: key, Kind: v.Kind().String(), Value: v.Interface()}
	result, err := textResult(output)
	if err != nil {
		return toolError("Failed to serialize variable: %v", err), VariableOutput{}, nil
	}
	return result, output, nil
}

func (s *Server) handleSnapshot(ctx context.Context, _ *mcp.CallToolRequest, input SnapshotInput) (*mcp.CallToolResult, AckOutput, error) {
	id, bad := parseSession(input.SessionID)
	if bad != nil {
		return bad, AckOutput{}, nil
	}
	return s.ack(id, input.Label, s.config.Host.SaveSnapshot(ctx, id, input.Label))
}

func (s *Server) handleRestore(ctx context.Context, _ *mcp.CallToolRequest, input SnapshotInput) (*mcp.CallToolResult, SessionOutput, error) {
	id, bad := parseSession(input.SessionID)
	if bad != nil {
		return bad, SessionOutput{}, nil
	}
	rec, err := s.config.Host.LoadSnapshot(ctx, id, input.Label)
	return s.sessionResult(id, rec, err)
}

func (s *Server) handleClose(ctx context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, AckOutput, error) {
	id, bad := parseSession(input.SessionID)
	if bad != nil {
		return bad, AckOutput{}, nil
	}
	return s.ack(id, "", s.config.Host.Close(ctx, id))
}
