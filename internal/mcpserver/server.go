// Package mcpserver exposes the dashboard tools over the Model Context Protocol.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "DeFi_Dashboard_Server"
	ServerVersion = "1.0.0"
)

// NewMCPServer creates an MCP server with every tool of registry registered.
func NewMCPServer(registry *Registry) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	handler := registry.toolHandler()
	for _, tool := range registry.Tools() {
		s.AddTool(tool, handler)
	}

	return s
}

// NewStreamableHTTPHandler serves s over stateless streamable HTTP at endpointPath.
func NewStreamableHTTPHandler(s *server.MCPServer, endpointPath string) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s,
		server.WithEndpointPath(endpointPath),
		server.WithStateLess(true),
	)
}
