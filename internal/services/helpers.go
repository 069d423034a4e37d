package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/repository"
	appErr "github.com/site-studio/engine/pkg/errors"
	"gorm.io/datatypes"
)

// requireAdmin loads the acting user and rejects anyone who is not an admin.
func requireAdmin(ctx context.Context, users repository.UserRepository, actorID uuid.UUID) (*models.User, error) {
	var u models.User
	if err := users.GetByID(ctx, actorID, &u); err != nil {
		return nil, appErr.Recode(err, appErr.CodeNotFound, appErr.CodeUnauthorized, "unknown user")
	}
	if !u.IsAdmin() {
		return nil, appErr.New(appErr.CodeForbidden, "admin role required")
	}
	return &u, nil
}

func encodeJSON(v any, what string) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "encode "+what)
	}
	return datatypes.JSON(b), nil
}

// record decodes a stored JSON object, treating anything else as empty.
func record(raw datatypes.JSON) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
