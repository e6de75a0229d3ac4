// Package locations persists tracked position samples in the local database.
package locations

import (
	"context"

	"github.com/mkravets/fieldops/internal/client/models"
)

// Repository describes operations for location samples.
type Repository interface {
	Create(ctx context.Context, loc *models.Location) error
	GetByID(ctx context.Context, id int64) (*models.Location, error)
	GetPendingSync(ctx context.Context) ([]*models.Location, error)
	MarkSynced(ctx context.Context, id int64) error

	// PruneSynced deletes synced samples older than the given time. Location
	// history has no local value once submitted; pruning keeps the database
	// small on long deployments.
	PruneSynced(ctx context.Context, before int64) (int, error)
}
