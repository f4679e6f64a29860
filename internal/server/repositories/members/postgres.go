// Package members provides the PostgreSQL-backed project membership
// repository.
package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add inserts a membership. An existing (project, user) pair yields
// common.ErrorAlreadyExists.
func (r *PostgresRepository) Add(ctx context.Context, projectID, userID int64, role models.Role) (*models.Membership, error) {
	query := `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	m := &models.Membership{ProjectID: projectID, UserID: userID, Role: role}
	if err := r.db.QueryRowContext(ctx, query, projectID, userID, role).Scan(&m.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// Get returns common.ErrorNotFound when userID is not a member of projectID.
func (r *PostgresRepository) Get(ctx context.Context, projectID, userID int64) (*models.Membership, error) {
	query := `
		SELECT project_id, user_id, role, created_at
		FROM project_members
		WHERE project_id = $1 AND user_id = $2
	`
	m := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, projectID, userID).Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) List(ctx context.Context, projectID int64) ([]models.Member, error) {
	query := `
		SELECT m.project_id, m.user_id, m.role, m.created_at, u.email, u.name
		FROM project_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt, &m.Email, &m.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, projectID, userID int64, role models.Role) error {
	query := `UPDATE project_members SET role = $1 WHERE project_id = $2 AND user_id = $3`
	return r.execOne(ctx, query, role, projectID, userID)
}

func (r *PostgresRepository) Remove(ctx context.Context, projectID, userID int64) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	return r.execOne(ctx, query, projectID, userID)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
