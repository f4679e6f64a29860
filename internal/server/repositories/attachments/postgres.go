// Package attachments provides the PostgreSQL-backed attachment metadata
// repository. The blobs themselves live in object storage.
package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/server/models"
)

const attachmentColumns = `id, issue_id, filename, content_type, size, storage_key, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (*models.Attachment, error) {
	a := &models.Attachment{}
	if err := row.Scan(&a.ID, &a.IssueID, &a.Filename, &a.ContentType, &a.Size, &a.StorageKey, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Attachment) (*models.Attachment, error) {
	query := `
		INSERT INTO attachments (issue_id, filename, content_type, size, storage_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, a.IssueID, a.Filename, a.ContentType, a.Size, a.StorageKey).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByIssue(ctx context.Context, issueID int64) ([]models.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE issue_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, issueID, id int64) (*models.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE issue_id = $1 AND id = $2`
	a, err := scanAttachment(r.db.QueryRowContext(ctx, query, issueID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, issueID, id int64) error {
	query := `DELETE FROM attachments WHERE issue_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, issueID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// StatsByProject counts attachments of every issue in the project.
func (r *PostgresRepository) StatsByProject(ctx context.Context, projectID int64) (*models.StorageStats, error) {
	query := `
		SELECT COUNT(a.id), COALESCE(SUM(a.size), 0)
		FROM attachments a
		JOIN issues i ON i.id = a.issue_id
		WHERE i.project_id = $1
	`
	s := &models.StorageStats{}
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&s.Count, &s.TotalBytes); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
