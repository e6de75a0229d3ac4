package api

import (
	"context"

	"github.com/mkravets/fieldops/internal/client/models"
)

// Client talks to the FieldOps backend on behalf of one device.
type Client interface {
	Close() error

	GetSalt(ctx context.Context, badge string) ([]byte, error)
	Login(ctx context.Context, badge string, verifier []byte) error
	Ping(ctx context.Context) error

	SubmitTimeRecord(ctx context.Context, rec *models.TimeRecord) error
	SubmitLocation(ctx context.Context, loc *models.Location) error
	SubmitReport(ctx context.Context, rep *models.Report) (string, error)

	// CreatePhotoUpload registers the photo and returns its server-side id
	// together with a presigned URL the binary content must be PUT to.
	CreatePhotoUpload(ctx context.Context, p *models.Photo) (string, string, error)
	UploadPhoto(ctx context.Context, url string, data []byte) error
	ConfirmPhotoUpload(ctx context.Context, remoteID string) error
}
