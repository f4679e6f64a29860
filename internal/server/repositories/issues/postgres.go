// Package issues provides the PostgreSQL-backed issue repository.
package issues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/server/models"
)

const issueColumns = `id, project_id, type, title, status, priority, version, assignee, description, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*models.Issue, error) {
	i := &models.Issue{}
	err := row.Scan(&i.ID, &i.ProjectID, &i.Type, &i.Title, &i.Status, &i.Priority,
		&i.Version, &i.Assignee, &i.Description, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// List returns the project's issues matching f, newest first. Limit must
// already be normalized by the caller.
func (r *PostgresRepository) List(ctx context.Context, projectID int64, f models.IssueFilter) ([]models.Issue, error) {
	conds := []string{"project_id = $1"}
	args := []any{projectID}

	add := func(col string, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("type", string(f.Type))
	add("status", string(f.Status))
	add("priority", string(f.Priority))
	add("version", f.Version)

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		issueColumns, strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Issue{}
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, projectID, id int64) (*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE project_id = $1 AND id = $2`
	i, err := scanIssue(r.db.QueryRowContext(ctx, query, projectID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return i, nil
}

func (r *PostgresRepository) Create(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	query := `
		INSERT INTO issues (project_id, type, title, status, priority, version, assignee, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		issue.ProjectID, issue.Type, issue.Title, issue.Status, issue.Priority,
		issue.Version, issue.Assignee, issue.Description,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return issue, nil
}

// Update applies the non-nil fields of patch. An empty patch just returns
// the current row.
func (r *PostgresRepository) Update(ctx context.Context, projectID, id int64, patch models.IssuePatch) (*models.Issue, error) {
	if patch.Empty() {
		return r.Get(ctx, projectID, id)
	}

	sets := []string{}
	args := []any{}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Type != nil {
		set("type", *patch.Type)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.Version != nil {
		set("version", nullable(*patch.Version))
	}
	if patch.Assignee != nil {
		set("assignee", nullable(*patch.Assignee))
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, projectID, id)
	query := fmt.Sprintf(`UPDATE issues SET %s WHERE project_id = $%d AND id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), issueColumns)

	i, err := scanIssue(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return i, nil
}

// nullable stores an empty string as NULL so a field can be cleared.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRepository) Delete(ctx context.Context, projectID, id int64) error {
	query := `DELETE FROM issues WHERE project_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, projectID, id)
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

// CountByVersion aggregates issues targeting version in one pass.
func (r *PostgresRepository) CountByVersion(ctx context.Context, projectID int64, version string) (int64, map[string]int64, map[string]int64, error) {
	query := `
		SELECT status, type, COUNT(*)
		FROM issues
		WHERE project_id = $1 AND version = $2
		GROUP BY status, type
	`
	rows, err := r.db.QueryContext(ctx, query, projectID, version)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var total int64
	byStatus := map[string]int64{}
	byType := map[string]int64{}
	for rows.Next() {
		var status, typ string
		var n int64
		if err := rows.Scan(&status, &typ, &n); err != nil {
			return 0, nil, nil, fmt.Errorf("db error: %w", err)
		}
		total += n
		byStatus[status] += n
		byType[typ] += n
	}
	if err := rows.Err(); err != nil {
		return 0, nil, nil, fmt.Errorf("db error: %w", err)
	}
	return total, byStatus, byType, nil
}
