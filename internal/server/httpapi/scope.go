package httpapi

import (
	"context"

	"github.com/dmitrijs2005/goproj/internal/server/models"
)

type scopeKey struct{}

// RequestScope is the authenticated caller, built once by the auth
// middleware. ProjectID and Role are filled in by the role guard.
type RequestScope struct {
	User      *models.User
	Token     string
	ProjectID int64
	Role      models.Role
}

func withScope(ctx context.Context, s *RequestScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the scope attached by the auth middleware, or nil.
func ScopeFrom(ctx context.Context) *RequestScope {
	s, _ := ctx.Value(scopeKey{}).(*RequestScope)
	return s
}
