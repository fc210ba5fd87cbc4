// Package store persists CandidateRecords. Records are append-only.
package store

import (
	"context"

	"taf-intake/internal/models"
)

// Store is the record persistence the intake service depends on.
type Store interface {
	// Append assigns ID and CreatedAt on rec, persists it and returns the id.
	Append(ctx context.Context, rec *models.CandidateRecord) (string, error)
	// ListAll returns every record, newest first. An empty store yields an
	// empty, non-nil slice.
	ListAll(ctx context.Context) ([]models.CandidateRecord, error)
	Get(ctx context.Context, id string) (*models.CandidateRecord, error)
	Ping(ctx context.Context) error
}
