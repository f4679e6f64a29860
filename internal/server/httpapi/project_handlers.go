package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/services"
)

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.ListForUser(r.Context(), ScopeFrom(r.Context()).User.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectInput
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.projects.Create(r.Context(), ScopeFrom(r.Context()).User.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFrom(r.Context())
	p, err := h.projects.Get(r.Context(), scope.ProjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ProjectWithRole{Project: *p, Role: scope.Role})
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateProjectInput
	if !decodeJSON(w, r, &req) {
		return
	}

	scope := ScopeFrom(r.Context())
	p, err := h.projects.Update(r.Context(), scope.ProjectID, scope.User.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFrom(r.Context())
	if err := h.projects.Delete(r.Context(), scope.ProjectID, scope.User.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.Members(r.Context(), ScopeFrom(r.Context()).ProjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req services.AddMemberInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	scope := ScopeFrom(r.Context())
	m, err := h.projects.AddMember(r.Context(), scope.ProjectID, scope.User.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) changeMemberRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	var req struct {
		Role models.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	scope := ScopeFrom(r.Context())
	if err := h.projects.ChangeRole(r.Context(), scope.ProjectID, scope.User.ID, targetID, req.Role); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	scope := ScopeFrom(r.Context())
	if err := h.projects.RemoveMember(r.Context(), scope.ProjectID, scope.User.ID, targetID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) leaveProject(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFrom(r.Context())
	if err := h.projects.RemoveMember(r.Context(), scope.ProjectID, scope.User.ID, scope.User.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) transferOwnership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	scope := ScopeFrom(r.Context())
	if err := h.projects.TransferOwnership(r.Context(), scope.ProjectID, scope.User.ID, req.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
