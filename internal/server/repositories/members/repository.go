package members

import (
	"context"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, projectID, userID int64, role models.Role) (*models.Membership, error)
	Get(ctx context.Context, projectID, userID int64) (*models.Membership, error)
	List(ctx context.Context, projectID int64) ([]models.Member, error)
	UpdateRole(ctx context.Context, projectID, userID int64, role models.Role) error
	Remove(ctx context.Context, projectID, userID int64) error
}
