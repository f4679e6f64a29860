package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

// Repository persists the sessions that make tokens revocable.
type Repository interface {
	Create(ctx context.Context, userID int64, token string, ttl time.Duration) error
	Resolve(ctx context.Context, token string) (*models.User, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
