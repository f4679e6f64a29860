package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/services"
	"github.com/gorilla/mux"
)

func (h *Handler) listVersions(w http.ResponseWriter, r *http.Request) {
	list, err := h.versions.List(r.Context(), ScopeFrom(r.Context()).ProjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request) {
	v, err := h.versions.Get(r.Context(), ScopeFrom(r.Context()).ProjectID, mux.Vars(r)["name"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) createVersion(w http.ResponseWriter, r *http.Request) {
	var req services.CreateVersionInput
	if !decodeJSON(w, r, &req) {
		return
	}

	scope := ScopeFrom(r.Context())
	v, err := h.versions.Create(r.Context(), scope.ProjectID, scope.User.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) updateVersion(w http.ResponseWriter, r *http.Request) {
	var patch models.VersionPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	scope := ScopeFrom(r.Context())
	v, err := h.versions.Update(r.Context(), scope.ProjectID, mux.Vars(r)["name"], scope.User.ID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) deleteVersion(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFrom(r.Context())
	if err := h.versions.Delete(r.Context(), scope.ProjectID, mux.Vars(r)["name"], scope.User.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) versionStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.versions.Stats(r.Context(), ScopeFrom(r.Context()).ProjectID, mux.Vars(r)["name"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
