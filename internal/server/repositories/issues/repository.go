package issues

import (
	"context"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, projectID int64, f models.IssueFilter) ([]models.Issue, error)
	Get(ctx context.Context, projectID, id int64) (*models.Issue, error)
	Create(ctx context.Context, issue *models.Issue) (*models.Issue, error)
	Update(ctx context.Context, projectID, id int64, patch models.IssuePatch) (*models.Issue, error)
	Delete(ctx context.Context, projectID, id int64) error
	CountByVersion(ctx context.Context, projectID int64, version string) (total int64, byStatus, byType map[string]int64, err error)
}
