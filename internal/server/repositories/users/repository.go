package users

import (
	"context"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ListByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error)
	UpdateStatus(ctx context.Context, id int64, status models.UserStatus) (*models.User, error)
}
