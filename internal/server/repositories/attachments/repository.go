package attachments

import (
	"context"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Attachment) (*models.Attachment, error)
	ListByIssue(ctx context.Context, issueID int64) ([]models.Attachment, error)
	Get(ctx context.Context, issueID, id int64) (*models.Attachment, error)
	Delete(ctx context.Context, issueID, id int64) error
	StatsByProject(ctx context.Context, projectID int64) (*models.StorageStats, error)
}
