package reports

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

func (r *SQLiteRepository) Create(ctx context.Context, rep *models.Report) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (title, body, severity, created_at, remote_id, is_synced)
		 VALUES (?, ?, ?, ?, '', 0)`,
		rep.Title, rep.Body, string(rep.Severity), rep.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted id: %w", err)
	}
	rep.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, body, severity, created_at, remote_id, is_synced FROM reports WHERE id = ?`, id)

	rep, err := scanReport(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

func (r *SQLiteRepository) GetPendingSync(ctx context.Context) ([]*models.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, body, severity, created_at, remote_id, is_synced
		 FROM reports WHERE is_synced = 0 ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending reports: %w", err)
	}
	defer rows.Close()

	var result []*models.Report
	for rows.Next() {
		rep, err := scanReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, remoteID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET is_synced = 1, remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("failed to mark report synced: %w", err)
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

func scanReport(scan func(dest ...any) error) (*models.Report, error) {
	rep := &models.Report{}
	var severity string
	var createdAt int64
	var synced int
	if err := scan(&rep.ID, &rep.Title, &rep.Body, &severity, &createdAt, &rep.RemoteId, &synced); err != nil {
		return nil, err
	}
	rep.Severity = models.ReportSeverity(severity)
	rep.CreatedAt = time.Unix(0, createdAt)
	rep.IsSynced = synced != 0
	return rep, nil
}
