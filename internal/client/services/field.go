package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/fieldops/internal/client/models"
	"github.com/mkravets/fieldops/internal/client/repositories/locations"
	"github.com/mkravets/fieldops/internal/client/repositories/photos"
	"github.com/mkravets/fieldops/internal/client/repositories/reports"
	"github.com/mkravets/fieldops/internal/client/repositories/syncitems"
	"github.com/mkravets/fieldops/internal/client/repositories/timerecords"
	"github.com/mkravets/fieldops/internal/common"
	"github.com/mkravets/fieldops/internal/dbx"
	"github.com/mkravets/fieldops/internal/filex"
)

// FieldService is the local-mutation surface: every capture writes the
// entity row and enqueues a sync item in one transaction, so a record can
// never exist without its queue entry.
type FieldService interface {
	ClockIn(ctx context.Context, lat, lon float64, note string) (*models.TimeRecord, error)
	ClockOut(ctx context.Context, lat, lon float64, note string) (*models.TimeRecord, error)
	TrackLocation(ctx context.Context, lat, lon, accuracy float64) (*models.Location, error)
	CapturePhoto(ctx context.Context, srcPath, note string) (*models.Photo, error)
	SubmitReport(ctx context.Context, title, body string, severity models.ReportSeverity) (*models.Report, error)
}

type fieldService struct {
	db         *sql.DB
	photoDir   string
	priorities map[models.EntityType]int
	maxRetries int
}

func NewFieldService(db *sql.DB, photoDir string, priorities map[models.EntityType]int, maxRetries int) FieldService {
	return &fieldService{db: db, photoDir: photoDir, priorities: priorities, maxRetries: maxRetries}
}

func validCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates out of range (%f, %f)", common.ErrInvalidArgument, lat, lon)
	}
	return nil
}

func (s *fieldService) clock(ctx context.Context, kind models.TimeRecordKind, lat, lon float64, note string) (*models.TimeRecord, error) {
	if err := validCoordinates(lat, lon); err != nil {
		return nil, err
	}

	rec := &models.TimeRecord{
		Kind:       kind,
		RecordedAt: time.Now(),
		Latitude:   lat,
		Longitude:  lon,
		Note:       note,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := timerecords.NewSQLiteRepository(tx).Create(ctx, rec); err != nil {
			return err
		}
		return syncitems.NewSQLiteRepository(tx, s.maxRetries).Add(ctx,
			models.EntityTimeRecord, strconv.FormatInt(rec.ID, 10), s.priorities[models.EntityTimeRecord])
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record %s: %w", kind, err)
	}
	return rec, nil
}

func (s *fieldService) ClockIn(ctx context.Context, lat, lon float64, note string) (*models.TimeRecord, error) {
	return s.clock(ctx, models.TimeRecordClockIn, lat, lon, note)
}

func (s *fieldService) ClockOut(ctx context.Context, lat, lon float64, note string) (*models.TimeRecord, error) {
	return s.clock(ctx, models.TimeRecordClockOut, lat, lon, note)
}

func (s *fieldService) TrackLocation(ctx context.Context, lat, lon, accuracy float64) (*models.Location, error) {
	if err := validCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if accuracy < 0 {
		return nil, fmt.Errorf("%w: negative accuracy", common.ErrInvalidArgument)
	}

	loc := &models.Location{
		Latitude:   lat,
		Longitude:  lon,
		Accuracy:   accuracy,
		RecordedAt: time.Now(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := locations.NewSQLiteRepository(tx).Create(ctx, loc); err != nil {
			return err
		}
		return syncitems.NewSQLiteRepository(tx, s.maxRetries).Add(ctx,
			models.EntityLocation, strconv.FormatInt(loc.ID, 10), s.priorities[models.EntityLocation])
	})
	if err != nil {
		return nil, fmt.Errorf("failed to track location: %w", err)
	}
	return loc, nil
}

// CapturePhoto copies the source file into the app's photo directory under
// the photo's id, so the original can disappear without breaking the later
// upload.
func (s *fieldService) CapturePhoto(ctx context.Context, srcPath, note string) (*models.Photo, error) {
	if srcPath == "" {
		return nil, fmt.Errorf("%w: empty photo path", common.ErrInvalidArgument)
	}

	id := uuid.NewString()

	localPath, err := filex.CopyInto(srcPath, s.photoDir, id+".jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to copy photo: %w", err)
	}
	checksum, err := filex.Sha256Sum(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum photo: %w", err)
	}

	p := &models.Photo{
		ID:        id,
		LocalPath: localPath,
		Checksum:  checksum,
		Note:      note,
		TakenAt:   time.Now(),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := photos.NewSQLiteRepository(tx).Create(ctx, p); err != nil {
			return err
		}
		return syncitems.NewSQLiteRepository(tx, s.maxRetries).Add(ctx,
			models.EntityPhoto, p.ID, s.priorities[models.EntityPhoto])
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture photo: %w", err)
	}
	return p, nil
}

func (s *fieldService) SubmitReport(ctx context.Context, title, body string, severity models.ReportSeverity) (*models.Report, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: empty report title", common.ErrInvalidArgument)
	}
	switch severity {
	case models.SeverityInfo, models.SeverityIncident, models.SeverityCritical:
	default:
		return nil, fmt.Errorf("%w: unknown severity %q", common.ErrInvalidArgument, severity)
	}

	rep := &models.Report{
		Title:     title,
		Body:      body,
		Severity:  severity,
		CreatedAt: time.Now(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := reports.NewSQLiteRepository(tx).Create(ctx, rep); err != nil {
			return err
		}
		return syncitems.NewSQLiteRepository(tx, s.maxRetries).Add(ctx,
			models.EntityReport, strconv.FormatInt(rep.ID, 10), s.priorities[models.EntityReport])
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit report: %w", err)
	}
	return rep, nil
}
