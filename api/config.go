// Package api provides an HTTP API server for playing hosted story sessions.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string

	// EnableMCP mounts the MCP server at /mcp
	EnableMCP bool
}
