package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/site-studio/engine/internal/api/types"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/site-studio/engine/pkg/logger"
	"go.uber.org/zap"
)

// Recovery turns a panicking handler into a 500 in the API's error envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			id := GetRequestID(r.Context())
			logger.L().Error("panic recovered",
				zap.String("id", id),
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(types.APIResponse{
				Success: false,
				Error:   &types.APIError{Code: string(appErr.CodeInternal), Message: "Internal server error."},
				Meta:    &types.Meta{RequestID: id},
			})
		}()
		next.ServeHTTP(w, r)
	})
}
