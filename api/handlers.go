package api

import (
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/host"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StoryResponse describes the hosted story.
type StoryResponse struct {
	Start      string              `json:"start"`
	Namespaces map[string][]string `json:"namespaces"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStory lists the namespaces and passages of the hosted story.
func (s *Server) handleStory(c *fiber.Ctx) error {
	st := s.host.Story()
	resp := StoryResponse{
		Start:      st.Start,
		Namespaces: make(map[string][]string),
	}
	for _, name := range st.NamespaceNames() {
		ns, _ := st.Namespace(name)
		passages := ns.PassageNames()
		sort.Strings(passages)
		resp.Namespaces[name] = passages
	}
	return c.JSON(resp)
}

// sessionID parses the :id route parameter.
func (s *Server) sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

// handleError renders errors returned from handlers, such as *fiber.Error
// for bad requests and unknown routes, as an ErrorResponse.
func handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		status = e.Code
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

// fail maps a host or session error onto an HTTP status.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := kerrors.CodeOf(err)

	switch {
	case errors.Is(err, host.ErrUnknownSession):
		status = fiber.StatusNotFound
		code = "UNKNOWN_SESSION"
	case errors.Is(err, host.ErrNoArchive):
		status = fiber.StatusServiceUnavailable
		code = "NO_ARCHIVE"
	case code == kerrors.CodeUnknownVariable,
		code == kerrors.CodeUnknownPassage,
		code == kerrors.CodeSnapshotMissing:
		status = fiber.StatusNotFound
	case code == kerrors.CodeNotInitialized:
		status = fiber.StatusConflict
	case code == kerrors.CodeNavigation:
		status = fiber.StatusUnprocessableEntity
	}

	if status == fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", c.Path(),
			"error", err,
		)
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error(), Code: string(code)})
}
