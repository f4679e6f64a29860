package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type loggingWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requestLogger assigns a request id, recovers panics and logs every
// request once it completes.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, id)
		lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				h.log.Error(r.Context(), "panic serving request", "request_id", id, "panic", p)
				writeError(lw, http.StatusInternalServerError, "internal server error")
			}
			h.log.Info(r.Context(), "http request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", lw.status,
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(lw, r)
	})
}

// cors answers preflights and decorates responses for allowed origins.
// Credentials are allowed, so the origin is echoed, never "*".
func (h *Handler) cors(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(h.corsOrigins))
	for _, o := range h.corsOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok && origin != "" {
			hdr := w.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			hdr.Set("Access-Control-Allow-Credentials", "true")
			hdr.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			hdr := w.Header()
			hdr.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			hdr.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+common.RequestIDHeaderName)
			hdr.Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the request token to a user and attaches a
// RequestScope. Requests without a live session get 401.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		user, err := h.auth.Resolve(r.Context(), token)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		ctx := withScope(r.Context(), &RequestScope{User: user, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole guards a project route: the caller must be a member of the
// project named by the {id} path variable with at least min.
func (h *Handler) requireRole(min models.Role, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := ScopeFrom(r.Context())
		if scope == nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		projectID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil || projectID <= 0 {
			writeError(w, http.StatusBadRequest, "project id required")
			return
		}

		role, err := h.projects.Authorize(r.Context(), projectID, scope.User.ID, min)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		scoped := *scope
		scoped.ProjectID = projectID
		scoped.Role = role
		next.ServeHTTP(w, r.WithContext(withScope(r.Context(), &scoped)))
	})
}
