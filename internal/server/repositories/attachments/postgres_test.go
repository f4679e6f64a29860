package attachments

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "issue_id", "filename", "content_type", "size", "storage_key", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT\s+INTO\s+attachments\s+\(issue_id, filename, content_type, size, storage_key\)`).
		WithArgs(int64(2), "shot.png", "image/png", int64(1024), "projects/1/issues/2/k").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), now))

	a, err := repo.Create(context.Background(), &models.Attachment{
		IssueID: 2, Filename: "shot.png", ContentType: "image/png", Size: 1024, StorageKey: "projects/1/issues/2/k",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), a.ID)
}

func TestListAndGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM\s+attachments\s+WHERE\s+issue_id = \$1\s+ORDER`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(5), int64(2), "a.txt", "text/plain", int64(3), "k", now))

	list, err := repo.ListByIssue(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a.txt", list[0].Filename)

	mock.ExpectQuery(`FROM\s+attachments\s+WHERE\s+issue_id = \$1 AND id = \$2`).
		WithArgs(int64(2), int64(6)).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), 2, 6)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE\s+FROM\s+attachments`).WithArgs(int64(2), int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 2, 5))

	mock.ExpectExec(`DELETE\s+FROM\s+attachments`).WithArgs(int64(2), int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), 2, 5), common.ErrorNotFound)
}

func TestStatsByProject(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT\s+COUNT\(a\.id\), COALESCE\(SUM\(a\.size\), 0\).*WHERE\s+i\.project_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(int64(3), int64(4096)))

	s, err := repo.StatsByProject(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &models.StorageStats{Count: 3, TotalBytes: 4096}, s)
}
