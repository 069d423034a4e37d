// Package mcpserver exposes the page editor to AI agents over MCP.
package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/site-studio/engine/internal/services"
	appErr "github.com/site-studio/engine/pkg/errors"
)

// Server is the MCP server for the editor. Every tool acts as one admin user.
type Server struct {
	mcp   *server.MCPServer
	actor uuid.UUID

	revisions services.RevisionService
	assistant services.AssistantService
	publisher services.PublishService
}

// Deps holds the services the tools delegate to.
type Deps struct {
	ActorID   uuid.UUID
	Revisions services.RevisionService
	Assistant services.AssistantService
	Publish   services.PublishService
}

func New(deps Deps) *Server {
	s := &Server{
		actor:     deps.ActorID,
		revisions: deps.Revisions,
		assistant: deps.Assistant,
		publisher: deps.Publish,
	}
	s.mcp = server.NewMCPServer(
		"site-studio-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerPageTools()
	s.registerPublishTools()
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// toolError reports service errors to the agent as a failed tool call.
// Only unexpected errors become protocol errors.
func toolError(err error) (*mcp.CallToolResult, error) {
	if !appErr.Expected(err) {
		return nil, err
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func argID(req mcp.CallToolRequest, name string) (uuid.UUID, error) {
	raw := req.GetString(name, "")
	if raw == "" {
		return uuid.Nil, appErr.New(appErr.CodeInvalid, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, appErr.New(appErr.CodeInvalid, "invalid "+name)
	}
	return id, nil
}
