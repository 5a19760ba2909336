// Package store records enrichment runs for operational visibility. The
// call-sheet core works without it; a nil store simply skips the audit trail.
package store

import (
	"context"
	"time"
)

// RunStatus represents the state of an enrichment run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one enrichment pass over a production.
type Run struct {
	ID                string    `json:"id"`
	ProductionID      string    `json:"production_id"`
	Title             string    `json:"title"`
	LocationsTotal    int       `json:"locations_total"`
	LocationsEnriched int       `json:"locations_enriched"`
	Status            RunStatus `json:"status"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	ProductionID string    `json:"production_id,omitempty"`
	Status       RunStatus `json:"status,omitempty"`
	Limit        int       `json:"limit,omitempty"`
}

// Store defines the persistence interface for enrichment runs.
type Store interface {
	CreateRun(ctx context.Context, productionID, title string, locationsTotal int) (*Run, error)
	CompleteRun(ctx context.Context, runID string, locationsEnriched int) error
	FailRun(ctx context.Context, runID string, runErr string) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
