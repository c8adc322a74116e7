// Package integration exercises the HTTP surface end to end with an
// in-memory store and a fake inference provider.
package integration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/socialchef/sous/internal/db/generated"
)

// ============================================================================
// In-memory store
// ============================================================================

// MemoryQueries implements the generated query methods the service uses.
type MemoryQueries struct {
	mu          sync.Mutex
	generations map[uuid.UUID]generated.Generation
	errors      []generated.CreateGenerationErrorParams
}

func NewMemoryQueries() *MemoryQueries {
	return &MemoryQueries{generations: make(map[uuid.UUID]generated.Generation)}
}

func (m *MemoryQueries) CreateGeneration(_ context.Context, arg generated.CreateGenerationParams) (generated.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	g := generated.Generation{
		ID:              pgtype.UUID{Bytes: id, Valid: true},
		UserID:          arg.UserID,
		InputText:       arg.InputText,
		GeneratedOutput: arg.GeneratedOutput,
		IsAccepted:      false,
		CreatedAt:       pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
	}
	m.generations[id] = g
	return g, nil
}

func (m *MemoryQueries) CreateGenerationError(_ context.Context, arg generated.CreateGenerationErrorParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, arg)
	return nil
}

func (m *MemoryQueries) GetGeneration(_ context.Context, arg generated.GetGenerationParams) (generated.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.generations[uuid.UUID(arg.ID.Bytes)]
	if !ok || g.UserID != arg.UserID {
		return generated.Generation{}, pgx.ErrNoRows
	}
	return g, nil
}

func (m *MemoryQueries) AcceptGeneration(_ context.Context, arg generated.AcceptGenerationParams) (generated.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.generations[uuid.UUID(arg.ID.Bytes)]
	if !ok || g.UserID != arg.UserID {
		return generated.Generation{}, pgx.ErrNoRows
	}
	g.IsAccepted = true
	m.generations[uuid.UUID(arg.ID.Bytes)] = g
	return g, nil
}

func (m *MemoryQueries) Generations() []generated.Generation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]generated.Generation, 0, len(m.generations))
	for _, g := range m.generations {
		out = append(out, g)
	}
	return out
}

func (m *MemoryQueries) ErrorRecords() []generated.CreateGenerationErrorParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generated.CreateGenerationErrorParams(nil), m.errors...)
}
