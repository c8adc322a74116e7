package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/socialchef/sous/internal/errors"
)

type ErrorResponse struct {
	Error              string `json:"error"`
	Code               string `json:"code"`
	RecoverySuggestion string `json:"recoverySuggestion,omitempty"`
	Retryable          bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	writeJSON(w, err.StatusCode, ErrorResponse{
		Error:              err.Message,
		Code:               err.Code(),
		RecoverySuggestion: err.RecoverySuggestion(),
		Retryable:          err.IsRetryable(),
	})
}

var errUnauthorized = apperrors.NewUnauthorizedError("Unauthorized", "UNAUTHORIZED")
