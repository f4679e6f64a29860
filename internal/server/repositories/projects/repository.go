package projects

import (
	"context"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	ListForUser(ctx context.Context, userID int64) ([]models.ProjectWithRole, error)
	Update(ctx context.Context, id int64, name, description *string) (*models.Project, error)
	SetOwner(ctx context.Context, id, ownerID int64) error
	Delete(ctx context.Context, id int64) error
}
