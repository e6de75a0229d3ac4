package syncitems

import (
	"context"
	"fmt"
	"time"

	"github.com/mkravets/fieldops/internal/client/models"
	"github.com/mkravets/fieldops/internal/common"
	"github.com/mkravets/fieldops/internal/dbx"
)

// SQLiteRepository implements Repository on top of the sync_items table.
//
// maxRetries is the dead-letter cutoff: a failing item whose RetryCount
// reaches it is marked dead instead of staying in the live queue. Zero
// disables the cutoff (retry forever).
type SQLiteRepository struct {
	db         dbx.DBTX
	maxRetries int
}

// NewSQLiteRepository returns a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX, maxRetries int) *SQLiteRepository {
	return &SQLiteRepository{db: db, maxRetries: maxRetries}
}

func (r *SQLiteRepository) Add(ctx context.Context, entityType models.EntityType, entityID string, priority int) error {
	if !entityType.Valid() || entityID == "" {
		return fmt.Errorf("%w: entity type %q, id %q", common.ErrInvalidArgument, entityType, entityID)
	}

	query := `INSERT INTO sync_items (entity_type, entity_id, priority, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(entity_type, entity_id) DO UPDATE SET
				priority = MAX(priority, excluded.priority),
				retry_count = CASE WHEN dead = 1 THEN 0 ELSE retry_count END,
				last_error = CASE WHEN dead = 1 THEN '' ELSE last_error END,
				dead = 0
	`
	_, err := r.db.ExecContext(ctx, query, string(entityType), entityID, priority, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert sync item: %w", err)
	}
	return nil
}

const pendingColumns = `entity_type, entity_id, priority, retry_count, last_error, dead, created_at, last_attempt_at`

func (r *SQLiteRepository) GetPending(ctx context.Context, entityType models.EntityType) ([]models.SyncItem, error) {
	query := `SELECT ` + pendingColumns + ` FROM sync_items
			WHERE dead = 0 AND entity_type = ?
			ORDER BY priority DESC, created_at ASC`
	return r.queryItems(ctx, query, string(entityType))
}

func (r *SQLiteRepository) GetAllPending(ctx context.Context) ([]models.SyncItem, error) {
	query := `SELECT ` + pendingColumns + ` FROM sync_items
			WHERE dead = 0
			ORDER BY priority DESC, created_at ASC`
	return r.queryItems(ctx, query)
}

func (r *SQLiteRepository) queryItems(ctx context.Context, query string, args ...any) ([]models.SyncItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync items: %w", err)
	}
	defer rows.Close()

	var result []models.SyncItem
	for rows.Next() {
		var item models.SyncItem
		var entityType string
		var dead int
		var createdAt, lastAttemptAt int64
		if err := rows.Scan(&entityType, &item.EntityID, &item.Priority, &item.RetryCount,
			&item.LastError, &dead, &createdAt, &lastAttemptAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync item: %w", err)
		}
		item.EntityType = models.EntityType(entityType)
		item.Dead = dead != 0
		item.CreatedAt = time.Unix(0, createdAt)
		if lastAttemptAt != 0 {
			item.LastAttemptAt = time.Unix(0, lastAttemptAt)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync items: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, entityType models.EntityType, entityID string, success bool, syncErr error) error {
	if !entityType.Valid() || entityID == "" {
		return fmt.Errorf("%w: entity type %q, id %q", common.ErrInvalidArgument, entityType, entityID)
	}

	if success {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM sync_items WHERE entity_type = ? AND entity_id = ?`,
			string(entityType), entityID)
		if err != nil {
			return fmt.Errorf("failed to remove synced item: %w", err)
		}
		return nil
	}

	reason := ""
	if syncErr != nil {
		reason = syncErr.Error()
	}

	now := time.Now()

	// Upsert so a failed direct single-item sync is recorded even when the
	// item was never queued through a local mutation.
	query := `INSERT INTO sync_items (entity_type, entity_id, priority, retry_count, last_error, created_at, last_attempt_at)
			VALUES (?, ?, 0, 1, ?, ?, ?)
			ON CONFLICT(entity_type, entity_id) DO UPDATE SET
				retry_count = retry_count + 1,
				last_error = excluded.last_error,
				last_attempt_at = excluded.last_attempt_at
	`
	_, err := r.db.ExecContext(ctx, query, string(entityType), entityID, reason, now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record sync failure: %w", err)
	}

	if r.maxRetries > 0 {
		_, err = r.db.ExecContext(ctx,
			`UPDATE sync_items SET dead = 1 WHERE entity_type = ? AND entity_id = ? AND retry_count >= ?`,
			string(entityType), entityID, r.maxRetries)
		if err != nil {
			return fmt.Errorf("failed to dead-letter sync item: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Statistics(ctx context.Context) (map[models.EntityType]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entity_type, COUNT(*) FROM sync_items WHERE dead = 0 GROUP BY entity_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync statistics: %w", err)
	}
	defer rows.Close()

	result := make(map[models.EntityType]int)
	for rows.Next() {
		var entityType string
		var count int
		if err := rows.Scan(&entityType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan sync statistics: %w", err)
		}
		result[models.EntityType(entityType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync statistics: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetDead(ctx context.Context) ([]models.SyncItem, error) {
	query := `SELECT ` + pendingColumns + ` FROM sync_items
			WHERE dead = 1
			ORDER BY created_at ASC`
	return r.queryItems(ctx, query)
}

func (r *SQLiteRepository) ResetDead(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sync_items SET dead = 0, retry_count = 0, last_error = '' WHERE dead = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset dead items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}
