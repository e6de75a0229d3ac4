package sync

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/mkravets/fieldops/internal/client/api"
	"github.com/mkravets/fieldops/internal/client/models"
	"github.com/mkravets/fieldops/internal/client/repositories/locations"
	"github.com/mkravets/fieldops/internal/client/repositories/photos"
	"github.com/mkravets/fieldops/internal/client/repositories/reports"
	"github.com/mkravets/fieldops/internal/client/repositories/syncitems"
	"github.com/mkravets/fieldops/internal/client/repositories/timerecords"
	"github.com/mkravets/fieldops/internal/common"
	"github.com/mkravets/fieldops/internal/logging"
)

// Adapter bridges the generic sync queue and one entity's transport.
type Adapter interface {
	EntityType() models.EntityType

	// SyncOne pushes exactly one record. It returns true only on confirmed
	// server acceptance; ordinary failures (transport, storage) come back
	// as (false, err). It does not touch the sync queue.
	SyncOne(ctx context.Context, id string) (bool, error)

	// SyncAllPending pushes every queued record of this type in the
	// queue's priority-then-age order, recording each outcome in the
	// queue. Failures never stop the remaining items.
	SyncAllPending(ctx context.Context) (synced, failed int)

	InProgress() bool
}

// entityAdapter implements Adapter generically; the entity-specific part
// (load the record, push it, mark it synced) is the pushOne closure.
type entityAdapter struct {
	entityType models.EntityType
	store      syncitems.Repository
	logger     logging.Logger
	inProgress atomic.Bool
	pushOne    func(ctx context.Context, id string) error

	// notify, when set, receives per-item progress for UI consumers.
	notify func(e StatusEvent)
}

func (a *entityAdapter) EntityType() models.EntityType {
	return a.entityType
}

func (a *entityAdapter) InProgress() bool {
	return a.inProgress.Load()
}

func (a *entityAdapter) SyncOne(ctx context.Context, id string) (bool, error) {
	if err := a.pushOne(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (a *entityAdapter) SyncAllPending(ctx context.Context) (synced, failed int) {
	if !a.inProgress.CompareAndSwap(false, true) {
		return 0, 0
	}
	defer a.inProgress.Store(false)

	items, err := a.store.GetPending(ctx, a.entityType)
	if err != nil {
		a.logger.Error(ctx, "failed to load pending sync items",
			"entity_type", string(a.entityType), "error", err.Error())
		return 0, 1
	}

	total := len(items)
	for i, item := range items {
		// Cancellation leaves the remaining items queued.
		if ctx.Err() != nil {
			break
		}

		ok, syncErr := a.SyncOne(ctx, item.EntityID)
		if err := a.store.UpdateStatus(ctx, a.entityType, item.EntityID, ok, syncErr); err != nil {
			a.logger.Error(ctx, "failed to record sync outcome",
				"entity_type", string(a.entityType), "entity_id", item.EntityID, "error", err.Error())
		}

		if ok {
			synced++
		} else {
			failed++
			a.logger.Warn(ctx, "sync item failed",
				"entity_type", string(a.entityType), "entity_id", item.EntityID, "error", syncErr.Error())
		}

		if a.notify != nil {
			a.notify(StatusEvent{EntityType: a.entityType, Status: StatusInProgress, Completed: i + 1, Total: total})
		}
	}

	return synced, failed
}

func NewTimeRecordAdapter(store syncitems.Repository, repo timerecords.Repository, client api.Client, logger logging.Logger) Adapter {
	return &entityAdapter{
		entityType: models.EntityTimeRecord,
		store:      store,
		logger:     logger,
		pushOne: func(ctx context.Context, id string) error {
			recID, err := parseNumericID(id)
			if err != nil {
				return err
			}
			rec, err := repo.GetByID(ctx, recID)
			if err != nil {
				return fmt.Errorf("failed to load time record: %w", err)
			}
			if rec.IsSynced {
				return nil
			}
			if err := client.SubmitTimeRecord(ctx, rec); err != nil {
				return fmt.Errorf("failed to submit time record: %w", err)
			}
			if err := repo.MarkSynced(ctx, rec.ID); err != nil {
				return fmt.Errorf("failed to mark time record synced: %w", err)
			}
			return nil
		},
	}
}

func NewLocationAdapter(store syncitems.Repository, repo locations.Repository, client api.Client, logger logging.Logger) Adapter {
	return &entityAdapter{
		entityType: models.EntityLocation,
		store:      store,
		logger:     logger,
		pushOne: func(ctx context.Context, id string) error {
			locID, err := parseNumericID(id)
			if err != nil {
				return err
			}
			loc, err := repo.GetByID(ctx, locID)
			if err != nil {
				return fmt.Errorf("failed to load location: %w", err)
			}
			if loc.IsSynced {
				return nil
			}
			if err := client.SubmitLocation(ctx, loc); err != nil {
				return fmt.Errorf("failed to submit location: %w", err)
			}
			if err := repo.MarkSynced(ctx, loc.ID); err != nil {
				return fmt.Errorf("failed to mark location synced: %w", err)
			}
			return nil
		},
	}
}

func NewReportAdapter(store syncitems.Repository, repo reports.Repository, client api.Client, logger logging.Logger) Adapter {
	return &entityAdapter{
		entityType: models.EntityReport,
		store:      store,
		logger:     logger,
		pushOne: func(ctx context.Context, id string) error {
			repID, err := parseNumericID(id)
			if err != nil {
				return err
			}
			rep, err := repo.GetByID(ctx, repID)
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}
			if rep.IsSynced {
				return nil
			}
			remoteID, err := client.SubmitReport(ctx, rep)
			if err != nil {
				return fmt.Errorf("failed to submit report: %w", err)
			}
			if err := repo.MarkSynced(ctx, rep.ID, remoteID); err != nil {
				return fmt.Errorf("failed to mark report synced: %w", err)
			}
			return nil
		},
	}
}

// NewPhotoAdapter pushes the photo metadata first, then uploads the binary
// to the returned presigned URL and confirms. The local row is marked synced
// only after the confirmation succeeds.
func NewPhotoAdapter(store syncitems.Repository, repo photos.Repository, client api.Client, logger logging.Logger) Adapter {
	return &entityAdapter{
		entityType: models.EntityPhoto,
		store:      store,
		logger:     logger,
		pushOne: func(ctx context.Context, id string) error {
			if id == "" {
				return fmt.Errorf("%w: empty photo id", common.ErrInvalidArgument)
			}
			p, err := repo.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load photo: %w", err)
			}
			if p.IsSynced {
				return nil
			}

			remoteID, uploadURL, err := client.CreatePhotoUpload(ctx, p)
			if err != nil {
				return fmt.Errorf("failed to create photo upload: %w", err)
			}

			data, err := os.ReadFile(p.LocalPath)
			if err != nil {
				return fmt.Errorf("failed to read photo file: %w", err)
			}
			if err := client.UploadPhoto(ctx, uploadURL, data); err != nil {
				return fmt.Errorf("failed to upload photo: %w", err)
			}
			if err := client.ConfirmPhotoUpload(ctx, remoteID); err != nil {
				return fmt.Errorf("failed to confirm photo upload: %w", err)
			}

			if err := repo.MarkSynced(ctx, p.ID, remoteID); err != nil {
				return fmt.Errorf("failed to mark photo synced: %w", err)
			}
			return nil
		},
	}
}

func parseNumericID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad entity id %q", common.ErrInvalidArgument, id)
	}
	return n, nil
}
