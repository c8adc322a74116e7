package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/socialchef/sous/internal/db"
	"github.com/socialchef/sous/internal/db/generated"
	apperrors "github.com/socialchef/sous/internal/errors"
	"github.com/socialchef/sous/internal/middleware"
	"github.com/socialchef/sous/internal/sentry"
	"github.com/socialchef/sous/internal/services/generation"
	"github.com/socialchef/sous/internal/validation"
)

const maxRequestBodyBytes = 64 << 10

type GenerateRecipeRequest struct {
	InputText string `json:"inputText"`
}

type GenerationResponse struct {
	ID         string          `json:"id"`
	InputText  string          `json:"inputText"`
	Recipe     json.RawMessage `json:"recipe"`
	IsAccepted bool            `json:"isAccepted"`
	CreatedAt  string          `json:"createdAt"`
}

var (
	errInvalidBody = apperrors.NewValidationError(
		"Invalid request body",
		"INVALID_REQUEST_BODY",
		"Send a JSON object with an inputText field.",
	)
	errInvalidGenerationID = apperrors.NewValidationError(
		"Invalid generation id",
		"INVALID_GENERATION_ID",
		"",
	)
	errGenerationNotFound = apperrors.NewNotFoundError(
		"Generation not found",
		"GENERATION_NOT_FOUND",
		"Generate a new recipe draft.",
	)
)

func (s *Server) HandleGenerateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, errUnauthorized)
		return
	}

	var req GenerateRecipeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeError(w, errInvalidBody)
		return
	}

	if appErr := validation.GenerationInput(req.InputText); appErr != nil {
		writeError(w, appErr)
		return
	}

	draft, err := s.generator.GenerateRecipeFromText(r.Context(), req.InputText, userID)
	if err != nil {
		s.writeGenerationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	status := generation.StatusCode(err)
	code := generation.ErrorCode(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		writeError(w, appErr)
		return
	}

	if status >= http.StatusInternalServerError {
		sentry.CaptureError(r.Context(), err, map[string]string{"error_code": code})
	}

	resp := ErrorResponse{Code: code, Retryable: status >= http.StatusInternalServerError}
	switch {
	case status == http.StatusUnprocessableEntity:
		resp.Error = "The generated recipe was incomplete"
		resp.RecoverySuggestion = "Add more detail, such as ingredients and steps, and try again."
	case code == generation.CodeInferenceTimeout:
		resp.Error = "Recipe generation timed out"
		resp.RecoverySuggestion = "Please try again."
	case code == generation.CodeInferenceHTTP,
		code == generation.CodeInferenceInvalidResponse,
		code == generation.CodeInferenceInvalidJSON:
		resp.Error = "The recipe service returned an unexpected response"
		resp.RecoverySuggestion = "Please try again."
	default:
		resp.Error = "Failed to generate recipe"
	}
	writeJSON(w, status, resp)
}

func (s *Server) HandleGetGeneration(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, errUnauthorized)
		return
	}

	params, appErr := generationKey(chi.URLParam(r, "id"), userID)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	g, err := s.generations.GetGeneration(r.Context(), generated.GetGenerationParams{
		ID:     params.ID,
		UserID: params.UserID,
	})
	if err != nil {
		s.writeStoreError(w, r, err, "failed to load generation")
		return
	}

	writeJSON(w, http.StatusOK, toGenerationResponse(g))
}

func (s *Server) HandleAcceptGeneration(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, errUnauthorized)
		return
	}

	params, appErr := generationKey(chi.URLParam(r, "id"), userID)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	g, err := s.generations.AcceptGeneration(r.Context(), params)
	if err != nil {
		s.writeStoreError(w, r, err, "failed to accept generation")
		return
	}

	writeJSON(w, http.StatusOK, toGenerationResponse(g))
}

// generationKey scopes a generation lookup to its owner. A caller whose id is
// not a UUID cannot own any generation.
func generationKey(id, userID string) (generated.AcceptGenerationParams, *apperrors.AppError) {
	gid, err := db.ParseUUID(id)
	if err != nil {
		return generated.AcceptGenerationParams{}, errInvalidGenerationID
	}
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return generated.AcceptGenerationParams{}, errGenerationNotFound
	}
	return generated.AcceptGenerationParams{ID: gid, UserID: uid}, nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, errGenerationNotFound)
		return
	}
	slog.ErrorContext(r.Context(), "Generation query failed", "error", err)
	sentry.CaptureError(r.Context(), err, map[string]string{"error_code": generation.CodeDatabaseError})
	writeError(w, apperrors.NewDatabaseError(msg, generation.CodeDatabaseError, err))
}

func toGenerationResponse(g generated.Generation) GenerationResponse {
	resp := GenerationResponse{
		ID:         db.UUIDString(g.ID),
		InputText:  g.InputText,
		Recipe:     json.RawMessage(g.GeneratedOutput),
		IsAccepted: g.IsAccepted,
	}
	if g.CreatedAt.Valid {
		resp.CreatedAt = g.CreatedAt.Time.Format(time.RFC3339)
	}
	return resp
}
