package api

import (
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/kataru/api/mcp"
	"github.com/papercomputeco/kataru/pkg/host"
)

// Server is the API server for a story host
type Server struct {
	config Config
	host   *host.Host
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server over h.
// The host is injected so sessions can be shared with other components.
func NewServer(config Config, h *host.Host, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          handleError,

		// Route params are kept as snapshot labels and variable keys
		Immutable: true,
	})

	s := &Server{
		config: config,
		host:   h,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/story", s.handleStory)

	v1 := app.Group("/v1/sessions")
	v1.Get("/", s.handleListSessions)
	v1.Post("/", s.handleOpenSession)
	v1.Get("/:id", s.handleGetSession)
	v1.Delete("/:id", s.handleCloseSession)
	v1.Post("/:id/advance", s.handleAdvance)
	v1.Post("/:id/goto", s.handleGoto)
	v1.Get("/:id/bookmark", s.handleBookmark)
	v1.Get("/:id/variables", s.handleListVariables)
	v1.Get("/:id/variables/:key", s.handleGetVariable)
	v1.Put("/:id/variables/:key", s.handleSetVariable)
	v1.Get("/:id/snapshots", s.handleListSnapshots)
	v1.Put("/:id/snapshots/:label", s.handleSaveSnapshot)
	v1.Post("/:id/snapshots/:label/restore", s.handleRestoreSnapshot)
	v1.Post("/:id/snapshots/:label/export", s.handleExportSnapshot)
	v1.Post("/:id/snapshots/:label/import", s.handleImportSnapshot)

	if config.EnableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Host:   h,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.EnableMCP,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
