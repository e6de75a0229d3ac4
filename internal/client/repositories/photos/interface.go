// Package photos persists captured photo metadata in the local database.
// The image bytes live on disk at Photo.LocalPath until upload is confirmed.
package photos

import (
	"context"

	"github.com/mkravets/fieldops/internal/client/models"
)

// Repository describes operations for photo records.
type Repository interface {
	Create(ctx context.Context, p *models.Photo) error
	GetByID(ctx context.Context, id string) (*models.Photo, error)
	GetPendingSync(ctx context.Context) ([]*models.Photo, error)

	// MarkSynced flags a photo as uploaded and stores the backend-assigned
	// remote id.
	MarkSynced(ctx context.Context, id string, remoteID string) error
}
