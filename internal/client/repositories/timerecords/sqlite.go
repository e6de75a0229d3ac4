package timerecords

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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, rec *models.TimeRecord) error {
	query := `INSERT INTO time_records (kind, recorded_at, latitude, longitude, note, is_synced)
			VALUES (?, ?, ?, ?, ?, 0)`
	res, err := r.db.ExecContext(ctx, query,
		string(rec.Kind), rec.RecordedAt.UnixNano(), rec.Latitude, rec.Longitude, rec.Note)
	if err != nil {
		return fmt.Errorf("failed to insert time record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted id: %w", err)
	}
	rec.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.TimeRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, recorded_at, latitude, longitude, note, is_synced
		 FROM time_records WHERE id = ?`, id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetPendingSync(ctx context.Context) ([]*models.TimeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, recorded_at, latitude, longitude, note, is_synced
		 FROM time_records WHERE is_synced = 0 ORDER BY recorded_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending time records: %w", err)
	}
	defer rows.Close()

	var result []*models.TimeRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE time_records SET is_synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark time record synced: %w", err)
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

func scanRecord(scan func(dest ...any) error) (*models.TimeRecord, error) {
	rec := &models.TimeRecord{}
	var kind string
	var recordedAt int64
	var synced int
	if err := scan(&rec.ID, &kind, &recordedAt, &rec.Latitude, &rec.Longitude, &rec.Note, &synced); err != nil {
		return nil, err
	}
	rec.Kind = models.TimeRecordKind(kind)
	rec.RecordedAt = time.Unix(0, recordedAt)
	rec.IsSynced = synced != 0
	return rec, nil
}
