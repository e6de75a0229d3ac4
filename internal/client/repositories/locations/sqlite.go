package locations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkravets/fieldops/internal/client/models"
	"github.com/mkravets/fieldops/internal/common"
	"github.com/mkravets/fieldops/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, loc *models.Location) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO locations (latitude, longitude, accuracy, recorded_at, is_synced)
		 VALUES (?, ?, ?, ?, 0)`,
		loc.Latitude, loc.Longitude, loc.Accuracy, loc.RecordedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted id: %w", err)
	}
	loc.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Location, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, latitude, longitude, accuracy, recorded_at, is_synced FROM locations WHERE id = ?`, id)

	loc, err := scanLocation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}

func (r *SQLiteRepository) GetPendingSync(ctx context.Context) ([]*models.Location, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, latitude, longitude, accuracy, recorded_at, is_synced
		 FROM locations WHERE is_synced = 0 ORDER BY recorded_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending locations: %w", err)
	}
	defer rows.Close()

	var result []*models.Location
	for rows.Next() {
		loc, err := scanLocation(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE locations SET is_synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark location synced: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) PruneSynced(ctx context.Context, before int64) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM locations WHERE is_synced = 1 AND recorded_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune locations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func scanLocation(scan func(dest ...any) error) (*models.Location, error) {
	loc := &models.Location{}
	var recordedAt int64
	var synced int
	if err := scan(&loc.ID, &loc.Latitude, &loc.Longitude, &loc.Accuracy, &recordedAt, &synced); err != nil {
		return nil, err
	}
	loc.RecordedAt = time.Unix(0, recordedAt)
	loc.IsSynced = synced != 0
	return loc, nil
}
