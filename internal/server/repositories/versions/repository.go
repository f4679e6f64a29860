package versions

import (
	"context"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, projectID int64) ([]models.Version, error)
	Get(ctx context.Context, projectID int64, name string) (*models.Version, error)
	Create(ctx context.Context, v *models.Version) (*models.Version, error)
	Update(ctx context.Context, projectID int64, name string, patch models.VersionPatch) (*models.Version, error)
	Delete(ctx context.Context, projectID int64, name string) error
}
