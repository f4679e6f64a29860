// Package activities provides the PostgreSQL-backed project activity feed.
package activities

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/server/models"
)

const feedSelect = `
	SELECT a.id, a.project_id, a.user_id, a.action, a.entity_type, a.entity_id, a.description, a.created_at,
	       u.email, u.name
	FROM activities a
	JOIN users u ON u.id = a.user_id
`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Activity) error {
	query := `
		INSERT INTO activities (project_id, user_id, action, entity_type, entity_id, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, a.ProjectID, a.UserID, a.Action, a.EntityType, a.EntityID, a.Description).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID int64, limit, offset int) ([]models.Activity, error) {
	query := feedSelect + `
		WHERE a.project_id = $1
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, projectID, limit, offset)
}

func (r *PostgresRepository) ListByEntity(ctx context.Context, projectID int64, entityType models.EntityType, entityID int64) ([]models.Activity, error) {
	query := feedSelect + `
		WHERE a.project_id = $1 AND a.entity_type = $2 AND a.entity_id = $3
		ORDER BY a.created_at DESC, a.id DESC
	`
	return r.list(ctx, query, projectID, entityType, entityID)
}

// ListRecentForUser returns the latest activity across every project
// userID is a member of.
func (r *PostgresRepository) ListRecentForUser(ctx context.Context, userID int64, limit int) ([]models.Activity, error) {
	query := feedSelect + `
		JOIN project_members m ON m.project_id = a.project_id AND m.user_id = $1
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.Action, &a.EntityType, &a.EntityID,
			&a.Description, &a.CreatedAt, &a.UserEmail, &a.UserName); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Stats counts the project's activities by entity type and by action.
func (r *PostgresRepository) Stats(ctx context.Context, projectID int64) (*models.ActivityStats, error) {
	query := `
		SELECT entity_type, action, COUNT(*)
		FROM activities
		WHERE project_id = $1
		GROUP BY entity_type, action
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	stats := &models.ActivityStats{ByType: map[string]int64{}, ByAction: map[string]int64{}}
	for rows.Next() {
		var entityType, action string
		var n sql.NullInt64
		if err := rows.Scan(&entityType, &action, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		stats.Total += n.Int64
		stats.ByType[entityType] += n.Int64
		stats.ByAction[action] += n.Int64
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return stats, nil
}
