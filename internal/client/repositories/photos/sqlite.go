package photos

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

func (r *SQLiteRepository) Create(ctx context.Context, p *models.Photo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO photos (id, local_path, checksum, note, taken_at, remote_id, is_synced)
		 VALUES (?, ?, ?, ?, ?, '', 0)`,
		p.ID, p.LocalPath, p.Checksum, p.Note, p.TakenAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, local_path, checksum, note, taken_at, remote_id, is_synced FROM photos WHERE id = ?`, id)

	p, err := scanPhoto(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetPendingSync(ctx context.Context) ([]*models.Photo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, local_path, checksum, note, taken_at, remote_id, is_synced
		 FROM photos WHERE is_synced = 0 ORDER BY taken_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending photos: %w", err)
	}
	defer rows.Close()

	var result []*models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, remoteID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE photos SET is_synced = 1, remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("failed to mark photo synced: %w", err)
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

func scanPhoto(scan func(dest ...any) error) (*models.Photo, error) {
	p := &models.Photo{}
	var takenAt int64
	var synced int
	if err := scan(&p.ID, &p.LocalPath, &p.Checksum, &p.Note, &takenAt, &p.RemoteId, &synced); err != nil {
		return nil, err
	}
	p.TakenAt = time.Unix(0, takenAt)
	p.IsSynced = synced != 0
	return p, nil
}
