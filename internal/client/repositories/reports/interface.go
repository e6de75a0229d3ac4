// Package reports persists activity reports in the local database.
package reports

import (
	"context"

	"github.com/mkravets/fieldops/internal/client/models"
)

// Repository describes operations for activity reports.
type Repository interface {
	Create(ctx context.Context, rep *models.Report) error
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	GetPendingSync(ctx context.Context) ([]*models.Report, error)

	// MarkSynced flags a report as accepted and stores the backend-assigned
	// remote id.
	MarkSynced(ctx context.Context, id int64, remoteID string) error
}
