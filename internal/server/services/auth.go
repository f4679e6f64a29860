// Package services contains the server-side business logic: accounts and
// sessions, projects and membership, issues, versions, attachments and the
// activity feed.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/dmitrijs2005/goproj/internal/server/auth"
	"github.com/dmitrijs2005/goproj/internal/server/config"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/repomanager"
)

// Tokens is the token issuing side used by AuthService.
type Tokens interface {
	Issue(userID int64, email string, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (*auth.Claims, error)
}

type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// Session is a freshly issued token with its lifetime.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	TTL       time.Duration `json:"-"`
}

type LoginResult struct {
	User *models.User `json:"user"`
	Session
}

// AuthService handles registration behind an approval gate, login, token
// resolution, logout, refresh and the admin approval workflow.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      Tokens
	log         logging.Logger
	sessionTTL  time.Duration
	rememberTTL time.Duration
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens Tokens, cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		log:         log,
		sessionTTL:  cfg.SessionTTL,
		rememberTTL: cfg.RememberTTL,
	}
}

// Register creates a pending account. No session is issued; the user can
// log in once an admin approves them.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, common.NewValidationError("a valid email is required")
	}
	if in.Name == "" {
		return nil, common.NewValidationError("name is required")
	}
	if err := auth.ValidatePasswordStrength(in.Password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	if _, err := repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, s.internal(ctx, "lookup user", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	u, err := repo.Create(ctx, &models.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Status:       models.UserPending,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, s.internal(ctx, "create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords both yield common.ErrInvalidCredentials. Correct credentials on
// an unapproved account yield common.ErrPendingApproval.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "lookup user", err)
	}

	if !auth.VerifyPassword(in.Password, u.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	if !u.IsApproved() {
		return nil, common.ErrPendingApproval
	}

	ttl := s.sessionTTL
	if in.Remember {
		ttl = s.rememberTTL
	}

	sess, err := s.openSession(ctx, s.db, u, ttl)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", u.ID, "remember", in.Remember)
	return &LoginResult{User: u, Session: *sess}, nil
}

// Resolve maps a token to its user. The signature and expiry are checked
// first, then the session row, which is what makes logout effective.
func (s *AuthService) Resolve(ctx context.Context, token string) (*models.User, error) {
	if _, err := s.tokens.Verify(token); err != nil {
		return nil, common.ErrorUnauthorized
	}

	u, err := s.repomanager.Sessions(s.db).Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, "resolve session", err)
	}
	return u, nil
}

// Logout revokes the session behind token. Unknown tokens are fine.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, token); err != nil {
		return s.internal(ctx, "delete session", err)
	}
	return nil
}

// Refresh swaps a live token for a new one of the same lifetime class.
// The old session is deleted in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	ttl := s.sessionTTL
	if claims.TTL() > s.sessionTTL {
		ttl = s.rememberTTL
	}

	var sess *Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Sessions(tx).Resolve(ctx, token)
		if err != nil {
			return err
		}
		if sess, err = s.openSession(ctx, tx, u, ttl); err != nil {
			return err
		}
		return s.repomanager.Sessions(tx).Delete(ctx, token)
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.ErrorUnauthorized
		case errors.Is(err, common.ErrorInternal):
			return nil, err
		}
		return nil, s.internal(ctx, "refresh session", err)
	}
	return sess, nil
}

// PendingUsers lists accounts awaiting approval. Admin only.
func (s *AuthService) PendingUsers(ctx context.Context, admin *models.User) ([]models.User, error) {
	if admin == nil || !admin.IsAdmin {
		return nil, common.ErrorForbidden
	}
	list, err := s.repomanager.Users(s.db).ListByStatus(ctx, models.UserPending)
	if err != nil {
		return nil, s.internal(ctx, "list pending users", err)
	}
	return list, nil
}

// Approve moves a pending account to approved. Admin only.
func (s *AuthService) Approve(ctx context.Context, admin *models.User, userID int64) (*models.User, error) {
	if admin == nil || !admin.IsAdmin {
		return nil, common.ErrorForbidden
	}
	u, err := s.repomanager.Users(s.db).UpdateStatus(ctx, userID, models.UserApproved)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, s.internal(ctx, "approve user", err)
	}
	s.log.Info(ctx, "user approved", "user_id", userID, "admin_id", admin.ID)
	return u, nil
}

// CleanupExpiredSessions purges expired sessions and reports how many.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx)
}

func (s *AuthService) openSession(ctx context.Context, db dbx.DBTX, u *models.User, ttl time.Duration) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(u.ID, u.Email, ttl)
	if err != nil {
		return nil, s.internal(ctx, "issue token", err)
	}
	if err := s.repomanager.Sessions(db).Create(ctx, u.ID, token, ttl); err != nil {
		return nil, s.internal(ctx, "create session", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, TTL: ttl}, nil
}

func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
