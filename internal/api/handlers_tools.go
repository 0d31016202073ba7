package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"

	"github.com/defi-dashboard/internal/logging"
)

// ToolInfo describes one tool in the REST listing.
type ToolInfo struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	InputSchema mcp.ToolInputSchema `json:"inputSchema"`
}

// handleListTools handles GET /api/tools
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools := lo.Map(s.registry.Tools(), func(t mcp.Tool, _ int) ToolInfo {
		return ToolInfo{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	})
	respondJSON(w, http.StatusOK, tools)
}

// handleCallTool handles POST /api/tools/{name}
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	args, err := parseToolArguments(r)
	if err != nil {
		respondAppError(w, err)
		return
	}

	var request mcp.CallToolRequest
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := s.registry.Call(r.Context(), request)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleUsage handles GET /api/usage
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.registry.Usage(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("Failed to read tool usage")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, usage)
}
