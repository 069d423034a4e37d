package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/site-studio/engine/internal/services"
)

func boolPtr(v bool) *bool { return &v }

func (s *Server) registerPublishTools() {
	s.mcp.AddTool(mcp.NewTool("publish_page",
		mcp.WithDescription("Publish a revision of a page to the live site"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("revisionId", mcp.Description("Revision to publish"), mcp.Required()),
		mcp.WithString("approvalNote", mcp.Description("Note recorded with the publish (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handlePublish)
}

func (s *Server) handlePublish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := argID(req, "pageId")
	if err != nil {
		return toolError(err)
	}
	revID, err := argID(req, "revisionId")
	if err != nil {
		return toolError(err)
	}
	res, err := s.publisher.Publish(ctx, s.actor, services.PublishInput{
		PageID:       pageID,
		RevisionID:   revID,
		ApprovalNote: req.GetString("approvalNote", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(res)
}
