// Package comments provides the PostgreSQL-backed issue comment repository.
package comments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByIssue returns comments in the order they were written.
func (r *PostgresRepository) ListByIssue(ctx context.Context, issueID int64) ([]models.Comment, error) {
	query := `
		SELECT id, issue_id, author, content, created_at
		FROM comments
		WHERE issue_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.Author, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	query := `
		INSERT INTO comments (issue_id, author, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, c.IssueID, c.Author, c.Content).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}
