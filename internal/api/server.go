package api

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/socialchef/sous/internal/config"
	"github.com/socialchef/sous/internal/db/generated"
	"github.com/socialchef/sous/internal/middleware"
	"github.com/socialchef/sous/internal/services/generation"
)

// RecipeGenerator is satisfied by *generation.Service.
type RecipeGenerator interface {
	GenerateRecipeFromText(ctx context.Context, inputText, userID string) (*generation.Draft, error)
}

// GenerationStore reads and accepts stored generations. *generated.Queries satisfies it.
type GenerationStore interface {
	GetGeneration(ctx context.Context, arg generated.GetGenerationParams) (generated.Generation, error)
	AcceptGeneration(ctx context.Context, arg generated.AcceptGenerationParams) (generated.Generation, error)
}

type Server struct {
	cfg         *config.Config
	generator   RecipeGenerator
	generations GenerationStore
}

func NewServer(cfg *config.Config, generator RecipeGenerator, generations GenerationStore) *Server {
	return &Server{
		cfg:         cfg,
		generator:   generator,
		generations: generations,
	}
}

// Routes registers the authenticated generation endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(s.cfg))
		r.Post("/api/recipes/generate", s.HandleGenerateRecipe)
		r.Get("/api/generations/{id}", s.HandleGetGeneration)
		r.Post("/api/generations/{id}/accept", s.HandleAcceptGeneration)
	})
}
