package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "email", "name", "password_hash", "status", "is_admin", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+users\s+\(email, name, password_hash, status, is_admin\).*RETURNING\s+id,\s*created_at`).
		WithArgs("a@b.c", "Ann", "hash", models.UserPending, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	u, err := repo.Create(context.Background(), &models.User{
		Email: "a@b.c", Name: "Ann", PasswordHash: "hash", Status: models.UserPending,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, now, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT\s+id, email.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "a@b.c", "Ann", "h", "approved", true, now))

	u, err := repo.GetByEmail(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, &models.User{
		ID: 1, Email: "a@b.c", Name: "Ann", PasswordHash: "h",
		Status: models.UserApproved, IsAdmin: true, CreatedAt: now,
	}, u)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).
		WithArgs("none@b.c").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "none@b.c")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(3)).
		WillReturnError(errors.New("boom"))

	_, err := repo.GetByID(context.Background(), 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestListByStatus(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+status\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+ASC`).
		WithArgs(models.UserPending).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "a@b.c", "A", "h", "pending", false, now).
			AddRow(int64(2), "b@b.c", "B", "h", "pending", false, now))

	list, err := repo.ListByStatus(context.Background(), models.UserPending)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b@b.c", list[1].Email)
}

func TestListByStatus_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users`).WillReturnRows(sqlmock.NewRows(cols))

	list, err := repo.ListByStatus(context.Background(), models.UserPending)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE\s+users\s+SET\s+status\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s+RETURNING`).
		WithArgs(models.UserApproved, int64(5)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(5), "e@b.c", "E", "h", "approved", false, now))

	u, err := repo.UpdateStatus(context.Background(), 5, models.UserApproved)
	require.NoError(t, err)
	assert.True(t, u.IsApproved())
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UPDATE\s+users`).WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), 99, models.UserApproved)
	require.ErrorIs(t, err, common.ErrorNotFound)
}
