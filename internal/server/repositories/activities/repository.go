package activities

import (
	"context"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Activity) error
	ListByProject(ctx context.Context, projectID int64, limit, offset int) ([]models.Activity, error)
	ListByEntity(ctx context.Context, projectID int64, entityType models.EntityType, entityID int64) ([]models.Activity, error)
	ListRecentForUser(ctx context.Context, userID int64, limit int) ([]models.Activity, error)
	Stats(ctx context.Context, projectID int64) (*models.ActivityStats, error)
}
