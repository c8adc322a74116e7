// Package generation turns free-form text into a validated recipe draft and
// records every attempt, successful or not.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/socialchef/sous/internal/config"
	"github.com/socialchef/sous/internal/db"
	"github.com/socialchef/sous/internal/db/generated"
	apperrors "github.com/socialchef/sous/internal/errors"
	"github.com/socialchef/sous/internal/metrics"
	"github.com/socialchef/sous/internal/services/ai"
	"github.com/socialchef/sous/internal/services/inference"
	"github.com/socialchef/sous/internal/services/recipe"
	"github.com/socialchef/sous/internal/telemetry"
)

// Store persists generation attempts. *generated.Queries satisfies it.
type Store interface {
	CreateGeneration(ctx context.Context, arg generated.CreateGenerationParams) (generated.Generation, error)
	CreateGenerationError(ctx context.Context, arg generated.CreateGenerationErrorParams) error
}

// Generator produces a structurally valid draft for a rendered user prompt.
type Generator interface {
	Generate(ctx context.Context, userMessage string) (*inference.Result[recipe.Draft], error)
}

// Draft is returned to the caller for review before a recipe is created.
type Draft struct {
	GenerationID string        `json:"generationId"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Ingredients  []recipe.Item `json:"ingredients"`
	Steps        []recipe.Item `json:"steps"`
}

type Service struct {
	store     Store
	generator Generator
	logger    *slog.Logger
}

func NewService(store Store, generator Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, generator: generator, logger: logger}
}

// NewClient builds the inference client used for recipe drafts.
func NewClient(apiKey string, cfg config.GenerationConfig, logger *slog.Logger) (*inference.Client[recipe.Draft], error) {
	return inference.New[recipe.Draft](inference.Config{
		APIKey:       apiKey,
		Model:        cfg.Model,
		SystemPrompt: ai.RecipeSystemPrompt(),
		Schema: inference.Schema{
			Name: recipe.SchemaName,
			Body: recipe.JSONSchema(),
		},
		BaseURL: cfg.BaseURL,
		Params: inference.ModelParams{
			Temperature: inference.Float(cfg.Temperature),
			MaxTokens:   inference.Int(cfg.MaxTokens),
		},
		Timeout: cfg.Timeout(),
		Logger:  logger,
	})
}

func NewServiceFromConfig(store Store, apiKey string, cfg config.GenerationConfig, logger *slog.Logger) (*Service, error) {
	client, err := NewClient(apiKey, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewService(store, client, logger), nil
}

// GenerateRecipeFromText makes one inference call, re-validates the result,
// and stores it as an unaccepted generation. On any failure an error record
// is written and the original error is returned unchanged.
func (s *Service) GenerateRecipeFromText(ctx context.Context, inputText, userID string) (*Draft, error) {
	ctx, span := telemetry.Tracer("generation").Start(ctx, "generation.GenerateRecipeFromText")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("input.length", len(inputText)),
	)

	start := time.Now()
	draft, err := s.generate(ctx, inputText, userID)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		code := ErrorCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		s.logger.ErrorContext(ctx, "Recipe generation failed",
			"user_id", userID,
			"error_code", code,
			"error", err,
		)
		s.recordFailure(ctx, inputText, userID, err, code)
		metrics.RecordGeneration(ctx, code, elapsed)
		return nil, err
	}

	span.SetAttributes(attribute.String("generation.id", draft.GenerationID))
	s.logger.InfoContext(ctx, "Recipe generated",
		"user_id", userID,
		"generation_id", draft.GenerationID,
		"ingredients", len(draft.Ingredients),
		"steps", len(draft.Steps),
		"duration_s", elapsed,
	)
	metrics.RecordGeneration(ctx, "", elapsed)
	return draft, nil
}

func (s *Service) generate(ctx context.Context, inputText, userID string) (*Draft, error) {
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid user id", CodeInvalidUserID, "Sign in again and retry.")
	}

	res, err := s.generator.Generate(ctx, ai.BuildRecipeUserPrompt(inputText))
	if err != nil {
		return nil, err
	}

	// The provider's strict mode is advisory; apply the domain rules again.
	if err := recipe.Validate(res.JSON); err != nil {
		return nil, apperrors.NewUnprocessableError("generated recipe failed validation", CodeRecipeValidationFailed, err)
	}

	output, err := json.Marshal(res.JSON)
	if err != nil {
		return nil, apperrors.NewRecipeGenerationError("failed to encode generated recipe", CodeRecipeGenerationFailed, err)
	}

	// Cancellation stops at the provider call; the insert runs to completion.
	row, err := s.store.CreateGeneration(context.WithoutCancel(ctx), generated.CreateGenerationParams{
		UserID:          uid,
		InputText:       inputText,
		GeneratedOutput: output,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to save generation", CodeDatabaseError, err)
	}
	if !row.ID.Valid {
		return nil, apperrors.NewDatabaseError("failed to save generation", CodeDatabaseError, fmt.Errorf("no generation id returned"))
	}

	return &Draft{
		GenerationID: db.UUIDString(row.ID),
		Name:         res.JSON.Name,
		Description:  res.JSON.Description,
		Ingredients:  res.JSON.Ingredients,
		Steps:        res.JSON.Steps,
	}, nil
}

// recordFailure writes the error record. Its own failures are logged and
// counted only. The write is detached from ctx cancellation.
func (s *Service) recordFailure(ctx context.Context, inputText, userID string, cause error, code string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Panic while recording generation error", "panic", r)
			metrics.RecordAuditFailure(ctx, code)
		}
	}()

	// NULL when the caller's id is unusable.
	uid, _ := db.ParseUUID(userID)

	err := s.store.CreateGenerationError(context.WithoutCancel(ctx), generated.CreateGenerationErrorParams{
		UserID:       uid,
		InputText:    inputText,
		ErrorMessage: cause.Error(),
		ErrorCode:    code,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to record generation error",
			"user_id", userID,
			"error_code", code,
			"error", err,
		)
		metrics.RecordAuditFailure(ctx, code)
	}
}
