// Package repository holds the run's in-memory tables (season summary and
// composite metrics) and the SQLite store for batch results.
package repository

import (
	"context"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/types"
)

// MetricsStore is the team-keyed metrics mapping. Each key is written at
// most once and the whole store becomes read-only once sealed.
type MetricsStore interface {
	model.MetricsLookup

	// Put records a team's metrics. A second write for the same team
	// returns ErrAlreadyWritten; any write after Seal returns ErrSealed.
	Put(ctx context.Context, team string, m model.CompositeMetrics) error

	// Seal makes the store read-only.
	Seal()

	// Count returns the number of teams with metrics.
	Count(ctx context.Context) int
}

// RunSummary describes a stored batch without its rows.
type RunSummary struct {
	RunID     string
	StartedAt string
	OK        int
	Failed    int
}

// PredictionStore persists batch results.
type PredictionStore interface {
	SaveBatch(ctx context.Context, b types.Batch) error
	// LoadBatch returns ErrNotFound for an unknown run.
	LoadBatch(ctx context.Context, runID string) (types.Batch, error)
	ListRuns(ctx context.Context) ([]RunSummary, error)
	Close() error
}
