package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/gorilla/mux"
)

func (h *Handler) recentActivity(w http.ResponseWriter, r *http.Request) {
	list, err := h.activity.Recent(r.Context(), ScopeFrom(r.Context()).User.ID, queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) projectActivity(w http.ResponseWriter, r *http.Request) {
	list, err := h.activity.ProjectFeed(r.Context(), ScopeFrom(r.Context()).ProjectID, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) entityActivity(w http.ResponseWriter, r *http.Request) {
	entityID, ok := pathID(w, r, "entityId")
	if !ok {
		return
	}
	entity := models.EntityType(mux.Vars(r)["entityType"])

	list, err := h.activity.EntityFeed(r.Context(), ScopeFrom(r.Context()).ProjectID, entity, entityID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) activityStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.activity.Stats(r.Context(), ScopeFrom(r.Context()).ProjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
