package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/api/middleware"
	"github.com/site-studio/engine/internal/api/types"
	"github.com/site-studio/engine/internal/api/validators"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/site-studio/engine/pkg/logger"
	"go.uber.org/zap"
)

const maxBody = 2 << 20

var validate = validators.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, types.APIResponse{
		Success: true,
		Data:    data,
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

// writeError reports err with the status its code maps to.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := types.StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   types.FromAppError(err),
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

func writeErrorStr(w http.ResponseWriter, r *http.Request, msg string) {
	writeError(w, r, appErr.New(appErr.CodeInvalid, msg))
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(dst); err != nil {
		writeErrorStr(w, r, "invalid json")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			writeErrorStr(w, r, validators.Message(err))
			return false
		}
		writeError(w, r, err)
		return false
	}
	return true
}

func actor(r *http.Request) uuid.UUID {
	id, _ := uuid.Parse(middleware.GetUserID(r.Context()))
	return id
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeErrorStr(w, r, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// mustUUID parses an id that already passed the uuid validator.
func mustUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}
