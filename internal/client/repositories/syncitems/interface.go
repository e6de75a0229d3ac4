// Package syncitems implements the durable queue of pending sync work,
// independent of entity-specific logic.
package syncitems

import (
	"context"

	"github.com/mkravets/fieldops/internal/client/models"
)

// Repository describes the sync queue operations used by the orchestrator
// and the per-entity adapters.
type Repository interface {
	// Add inserts a pending item, or coalesces into the existing row for
	// the same (entityType, entityID) pair, raising its priority to the
	// maximum of old and new. Re-adding a dead item revives it.
	Add(ctx context.Context, entityType models.EntityType, entityID string, priority int) error

	// GetPending returns live items of one type, priority descending then
	// CreatedAt ascending. This ordering is the contract the orchestrator
	// and adapters rely on.
	GetPending(ctx context.Context, entityType models.EntityType) ([]models.SyncItem, error)

	// GetAllPending returns live items across all types, same ordering.
	GetAllPending(ctx context.Context) ([]models.SyncItem, error)

	// UpdateStatus records the outcome of a sync attempt: success removes
	// the item; failure increments RetryCount, records the attempt time and
	// reason, and marks the item dead once the configured retry cutoff is
	// reached. A failure for an item that is not queued yet creates it, so
	// direct single-item syncs are audited too.
	UpdateStatus(ctx context.Context, entityType models.EntityType, entityID string, success bool, syncErr error) error

	// Statistics returns live pending counts per entity type. Types with
	// nothing pending are omitted.
	Statistics(ctx context.Context) (map[models.EntityType]int, error)

	// GetDead returns dead-lettered items, oldest first.
	GetDead(ctx context.Context) ([]models.SyncItem, error)

	// ResetDead revives all dead items, clearing their retry counters.
	// Returns the number of revived items.
	ResetDead(ctx context.Context) (int, error)
}
