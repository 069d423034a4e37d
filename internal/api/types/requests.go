package types

import "encoding/json"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProjectCreateRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Slug        string `json:"slug" validate:"omitempty,max=120"`
	Description string `json:"description"`
}

type PageCreateRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Slug          string `json:"slug" validate:"omitempty,max=120"`
	InitialPrompt string `json:"initialPrompt"`
}

type ThemePatchRequest struct {
	TokenPatch      map[string]any `json:"tokenPatch" validate:"required"`
	ThemeID         string         `json:"themeId" validate:"omitempty,uuid"`
	Name            string         `json:"name" validate:"omitempty,max=120"`
	ApplyToAllPages bool           `json:"applyToAllPages"`
}

// OperationsRequest carries raw operations; malformed entries are dropped
// by the normalizer rather than rejected.
type OperationsRequest struct {
	BaseRevisionID string          `json:"baseRevisionId" validate:"required,uuid"`
	Operations     json.RawMessage `json:"operations"`
	ChangeSummary  string          `json:"changeSummary"`
	Source         string          `json:"source" validate:"omitempty,oneof=chat visual theme"`
}

type RollbackRequest struct {
	TargetRevisionID string `json:"targetRevisionId" validate:"required,uuid"`
}

type AssistantRequest struct {
	RevisionID      string `json:"revisionId" validate:"required,uuid"`
	Prompt          string `json:"prompt" validate:"required,max=4000"`
	SelectedBlockID string `json:"selectedBlockId"`
	Mode            string `json:"mode" validate:"omitempty,oneof=chat visual theme"`
}

type SelectionRequest struct {
	Mode             string `json:"mode" validate:"omitempty,oneof=chat visual theme"`
	SelectedBlockID  string `json:"selectedBlockId"`
	LastPrompt       string `json:"lastPrompt"`
	ContextWindowRef string `json:"contextWindowRef"`
}

type PublishRequest struct {
	RevisionID   string `json:"revisionId" validate:"required,uuid"`
	ApprovalNote string `json:"approvalNote" validate:"max=2000"`
}
