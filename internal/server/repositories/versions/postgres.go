// Package versions provides the PostgreSQL-backed release version
// repository.
package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/server/models"
)

const versionColumns = `project_id, name, status, description, created_at, released_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*models.Version, error) {
	v := &models.Version{}
	if err := row.Scan(&v.ProjectID, &v.Name, &v.Status, &v.Description, &v.CreatedAt, &v.ReleasedAt); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *PostgresRepository) List(ctx context.Context, projectID int64) ([]models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE project_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, projectID int64, name string) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE project_id = $1 AND name = $2`
	v, err := scanVersion(r.db.QueryRowContext(ctx, query, projectID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

// Create inserts v. A name already used in the project yields
// common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, v *models.Version) (*models.Version, error) {
	query := `
		INSERT INTO versions (project_id, name, status, description, released_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, v.ProjectID, v.Name, v.Status, v.Description, v.ReleasedAt).Scan(&v.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) Update(ctx context.Context, projectID int64, name string, patch models.VersionPatch) (*models.Version, error) {
	query := `
		UPDATE versions
		SET status = COALESCE($1, status),
		    description = COALESCE($2, description),
		    released_at = COALESCE($3, released_at)
		WHERE project_id = $4 AND name = $5
		RETURNING ` + versionColumns

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	v, err := scanVersion(r.db.QueryRowContext(ctx, query, status, patch.Description, patch.ReleasedAt, projectID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, projectID int64, name string) error {
	query := `DELETE FROM versions WHERE project_id = $1 AND name = $2`
	res, err := r.db.ExecContext(ctx, query, projectID, name)
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
