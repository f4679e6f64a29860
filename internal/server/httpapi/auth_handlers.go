package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/services"
)

type userResponse struct {
	User *models.User `json:"user"`
}

type tokenResponse struct {
	User      *models.User `json:"user,omitempty"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{User: u})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.auth.Login(r.Context(), req)
	h.observeLogin(err)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.setSessionCookie(w, res.Token, res.TTL)
	writeJSON(w, http.StatusOK, tokenResponse{User: res.User, Token: res.Token, ExpiresAt: res.ExpiresAt})
}

func (h *Handler) observeLogin(err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case err == nil:
		h.metrics.ObserveLogin("success")
	case errors.Is(err, common.ErrInvalidCredentials):
		h.metrics.ObserveLogin("invalid")
	case errors.Is(err, common.ErrPendingApproval):
		h.metrics.ObserveLogin("pending")
	default:
		h.metrics.ObserveLogin("error")
	}
}

// logout always succeeds for the client; the cookie is cleared even when
// the session could not be deleted.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), tokenFromRequest(r)); err != nil {
		h.log.Warn(r.Context(), "logout failed", "error", err)
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userResponse{User: ScopeFrom(r.Context()).User})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	sess, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.setSessionCookie(w, sess.Token, sess.TTL)
	writeJSON(w, http.StatusOK, tokenResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (h *Handler) pendingUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.auth.PendingUsers(r.Context(), ScopeFrom(r.Context()).User)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.User{"users": nonNil(list)})
}

func (h *Handler) approveUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	u, err := h.auth.Approve(r.Context(), ScopeFrom(r.Context()).User, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u})
}

// nonNil keeps empty lists encoding as [] instead of null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
