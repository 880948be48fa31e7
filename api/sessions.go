package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/kataru/pkg/bookmark"
	"github.com/papercomputeco/kataru/pkg/boundary"
	"github.com/papercomputeco/kataru/pkg/value"
)

// OpenRequest optionally resumes a session from a bookmark.
type OpenRequest struct {
	Bookmark *bookmark.Bookmark `json:"bookmark,omitempty"`
}

// AdvanceRequest carries the input for the current line.
type AdvanceRequest struct {
	Input string `json:"input"`
}

// GotoRequest names the passage to jump to.
type GotoRequest struct {
	Passage string `json:"passage"`
}

// SetVariableRequest carries a new variable value.
type SetVariableRequest struct {
	Value *value.Value `json:"value"`
}

// SessionResponse is a session handle with its position and current line.
type SessionResponse struct {
	ID    string          `json:"id"`
	State boundary.Record `json:"state"`
}

// VariableResponse is a single variable.
type VariableResponse struct {
	Key   string      `json:"key"`
	Kind  string      `json:"kind"`
	Value value.Value `json:"value"`
}

func sessionResponse(id uuid.UUID, rec boundary.Record) SessionResponse {
	return SessionResponse{ID: id.String(), State: rec}
}

// parseBody decodes an optional JSON body into out.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return nil
}

// handleListSessions returns the handles of every open session.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	ids := s.host.Sessions()
	sessions := make([]string, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, id.String())
	}
	return c.JSON(map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// handleOpenSession starts a session at the story start or from a bookmark.
func (s *Server) handleOpenSession(c *fiber.Ctx) error {
	var req OpenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	id, rec, err := s.host.Open(c.Context(), req.Bookmark)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sessionResponse(id, rec))
}

// handleGetSession returns the position and current line of a session.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	rec, err := s.host.State(id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(sessionResponse(id, rec))
}

// handleCloseSession drops a session.
func (s *Server) handleCloseSession(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	if err := s.host.Close(c.Context(), id); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleAdvance moves a session to its next line.
func (s *Server) handleAdvance(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	var req AdvanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	rec, err := s.host.Advance(c.Context(), id, req.Input)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(sessionResponse(id, rec))
}

// handleGoto jumps a session to a passage.
func (s *Server) handleGoto(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	var req GotoRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Passage == "" {
		return fiber.NewError(fiber.StatusBadRequest, "passage is required")
	}

	rec, err := s.host.Goto(c.Context(), id, req.Passage)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(sessionResponse(id, rec))
}

// handleBookmark returns the persisted form of a session.
func (s *Server) handleBookmark(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	b, err := s.host.Bookmark(id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(b)
}

// handleListVariables returns every variable visible from the current namespace.
func (s *Server) handleListVariables(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	vars, err := s.host.Variables(id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(vars)
}

// handleGetVariable returns a single variable.
func (s *Server) handleGetVariable(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	key := c.Params("key")
	v, err := s.host.Get(id, key)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(VariableResponse{Key: key, Kind: v.Kind().String(), Value: v})
}

// handleSetVariable assigns a declared variable.
func (s *Server) handleSetVariable(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	var req SetVariableRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Value == nil {
		return fiber.NewError(fiber.StatusBadRequest, "value is required")
	}

	key := c.Params("key")
	if err := s.host.Set(c.Context(), id, key, *req.Value); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(VariableResponse{Key: key, Kind: req.Value.Kind().String(), Value: *req.Value})
}

// handleListSnapshots returns the labels of a session's snapshots.
func (s *Server) handleListSnapshots(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	labels, err := s.host.Snapshots(id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(map[string]any{
		"count":     len(labels),
		"snapshots": labels,
	})
}

// handleSaveSnapshot checkpoints a session under a label.
func (s *Server) handleSaveSnapshot(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	if err := s.host.SaveSnapshot(c.Context(), id, c.Params("label")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleRestoreSnapshot restores a labelled snapshot into a session.
func (s *Server) handleRestoreSnapshot(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	rec, err := s.host.LoadSnapshot(c.Context(), id, c.Params("label"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(sessionResponse(id, rec))
}

// handleExportSnapshot copies a snapshot into the shared archive.
func (s *Server) handleExportSnapshot(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	if err := s.host.Export(c.Context(), id, c.Params("label")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleImportSnapshot copies an archived snapshot into a session.
func (s *Server) handleImportSnapshot(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	if err := s.host.Import(c.Context(), id, c.Params("label")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
