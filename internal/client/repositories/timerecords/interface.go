// Package timerecords persists clock-in/clock-out records in the local
// database.
package timerecords

import (
	"context"

	"github.com/mkravets/fieldops/internal/client/models"
)

// Repository describes CRUD and sync-bookkeeping operations for time
// records. Implementations are backed by the local SQLite database.
type Repository interface {
	// Create inserts a new record and assigns its ID.
	Create(ctx context.Context, rec *models.TimeRecord) error

	// GetByID returns a record by its identifier.
	GetByID(ctx context.Context, id int64) (*models.TimeRecord, error)

	// GetPendingSync returns records not yet accepted by the backend,
	// oldest first.
	GetPendingSync(ctx context.Context) ([]*models.TimeRecord, error)

	// MarkSynced flags a record as accepted by the backend. Only the sync
	// core calls this.
	MarkSynced(ctx context.Context, id int64) error
}
