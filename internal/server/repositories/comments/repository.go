package comments

import (
	"context"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type Repository interface {
	ListByIssue(ctx context.Context, issueID int64) ([]models.Comment, error)
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
}
