package core

import (
	"context"

	"github.com/JonMunkholm/translocations/internal/schema"
)

// Store persists translocation records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Create inserts a fully populated record.
	Create(ctx context.Context, rec schema.Translocation) error

	// List returns every record matching f.
	List(ctx context.Context, f schema.Filter) ([]schema.Translocation, error)

	// Update replaces the user fields of the record with the given id and
	// returns the stored result. Returns ErrNotFound when nothing matched.
	Update(ctx context.Context, id string, in schema.TranslocationInput) (schema.Translocation, error)

	// Delete removes one record. Returns ErrNotFound when nothing matched.
	Delete(ctx context.Context, id string) error

	// Stats aggregates animal and record counts per species.
	Stats(ctx context.Context) (schema.Stats, error)

	// ReplaceAll removes every record and inserts recs.
	ReplaceAll(ctx context.Context, recs []schema.Translocation) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's connections.
	Close(ctx context.Context) error
}
