package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/services"
	appErr "github.com/site-studio/engine/pkg/errors"
)

func (s *Server) registerPageTools() {
	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get a page with its current revision, theme, recent assistant runs, snapshots and publish logs"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleGetPage)

	s.mcp.AddTool(mcp.NewTool("list_revisions",
		mcp.WithDescription("List the revisions of a page, newest first"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleListRevisions)

	s.mcp.AddTool(mcp.NewTool("apply_operations",
		mcp.WithDescription("Apply block operations to a base revision and save the result as a new revision. "+
			"Operations: add, remove, move, updateProps, updateContent, updateStyle, replaceBlock. "+
			"Operations that do not apply are reported as skipped."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("baseRevisionId", mcp.Description("Revision the operations are based on"), mcp.Required()),
		mcp.WithString("operations",
			mcp.Description("JSON array of operations [{op, targetBlockId?, parentBlockId?, index?, toParentBlockId?, toIndex?, block?, payload?, reason?}, ...]"),
			mcp.Required(),
		),
		mcp.WithString("changeSummary", mcp.Description("Short description of the change (optional)")),
	), s.handleApplyOperations)

	s.mcp.AddTool(mcp.NewTool("run_assistant",
		mcp.WithDescription("Turn a natural-language prompt into a preview revision"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("revisionId", mcp.Description("Revision to edit"), mcp.Required()),
		mcp.WithString("prompt", mcp.Description("What to change"), mcp.Required()),
		mcp.WithString("selectedBlockId", mcp.Description("Block the prompt is about (optional)")),
		mcp.WithString("mode", mcp.Description("chat, visual or theme (default chat)")),
	), s.handleRunAssistant)

	s.mcp.AddTool(mcp.NewTool("rollback_revision",
		mcp.WithDescription("Restore an earlier revision by appending a copy of it as the newest revision"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("targetRevisionId", mcp.Description("Revision to restore"), mcp.Required()),
	), s.handleRollback)
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := argID(req, "pageId")
	if err != nil {
		return toolError(err)
	}
	state, err := s.revisions.GetEditorState(ctx, s.actor, pageID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(state)
}

func (s *Server) handleListRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := argID(req, "pageId")
	if err != nil {
		return toolError(err)
	}
	revs, err := s.revisions.ListRevisions(ctx, s.actor, pageID)
	if err != nil {
		return toolError(err)
	}
	type summary struct {
		ID             string `json:"id"`
		RevisionNumber int    `json:"revisionNumber"`
		Source         string `json:"source"`
		ChangeSummary  string `json:"changeSummary"`
		CreatedAt      string `json:"createdAt"`
	}
	out := make([]summary, 0, len(revs))
	for _, r := range revs {
		out = append(out, summary{
			ID:             r.ID.String(),
			RevisionNumber: r.RevisionNumber,
			Source:         r.Source,
			ChangeSummary:  r.ChangeSummary,
			CreatedAt:      r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleApplyOperations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := argID(req, "pageId")
	if err != nil {
		return toolError(err)
	}
	baseID, err := argID(req, "baseRevisionId")
	if err != nil {
		return toolError(err)
	}
	var raw any
	if err := json.Unmarshal([]byte(req.GetString("operations", "[]")), &raw); err != nil {
		return toolError(appErr.New(appErr.CodeInvalid, "operations must be a JSON array"))
	}
	res, err := s.revisions.ApplyOperations(ctx, s.actor, services.ApplyInput{
		PageID:         pageID,
		BaseRevisionID: baseID,
		Operations:     dsl.NormalizeOperations(raw),
		ChangeSummary:  req.GetString("changeSummary", ""),
		Source:         models.SourceChat,
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(res)
}

func (s *Server) handleRunAssistant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := argID(req, "pageId")
	if err != nil {
		return toolError(err)
	}
	revID, err := argID(req, "revisionId")
	if err != nil {
		return toolError(err)
	}
	res, err := s.assistant.Run(ctx, s.actor, services.RunInput{
		PageID:          pageID,
		RevisionID:      revID,
		Prompt:          req.GetString("prompt", ""),
		SelectedBlockID: req.GetString("selectedBlockId", ""),
		Mode:            req.GetString("mode", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(res)
}

func (s *Server) handleRollback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := argID(req, "pageId")
	if err != nil {
		return toolError(err)
	}
	targetID, err := argID(req, "targetRevisionId")
	if err != nil {
		return toolError(err)
	}
	rev, err := s.revisions.Rollback(ctx, s.actor, pageID, targetID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{
		"revisionId":     rev.ID,
		"revisionNumber": rev.RevisionNumber,
		"changeSummary":  rev.ChangeSummary,
	})
}
