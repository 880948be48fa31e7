// Package mcp provides an MCP (Model Context Protocol) server that lets an
// agent play hosted kataru sessions through tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/kataru/pkg/host"
	"github.com/papercomputeco/kataru/pkg/utils"
)

type Config struct {
	// Host owns the sessions the tools drive
	Host *host.Host

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the session tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "kataru",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Host == nil {
			return nil, errors.New("session host is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}
		s.addTools(mcpServer)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying server, for connecting other transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

func (s *Server) addTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{Name: openToolName, Description: openDescription}, s.handleOpen)
	mcp.AddTool(server, &mcp.Tool{Name: advanceToolName, Description: advanceDescription}, s.handleAdvance)
	mcp.AddTool(server, &mcp.Tool{Name: gotoToolName, Description: gotoDescription}, s.handleGoto)
	mcp.AddTool(server, &mcp.Tool{Name: getToolName, Description: getDescription}, s.handleGet)
	mcp.AddTool(server, &mcp.Tool{Name: setToolName, Description: setDescription}, s.handleSet)
	mcp.AddTool(server, &mcp.Tool{Name: snapshotToolName, Description: snapshotDescription}, s.handleSnapshot)
	mcp.AddTool(server, &mcp.Tool{Name: restoreToolName, Description: restoreDescription}, s.handleRestore)
	mcp.AddTool(server, &mcp.Tool{Name: closeToolName, Description: closeDescription}, s.handleClose)
}
