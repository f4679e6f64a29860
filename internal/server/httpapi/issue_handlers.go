package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/services"
)

func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.IssueFilter{
		Type:     models.IssueType(q.Get("type")),
		Status:   models.IssueStatus(q.Get("status")),
		Priority: models.IssuePriority(q.Get("priority")),
		Version:  q.Get("version"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}

	list, err := h.issues.List(r.Context(), ScopeFrom(r.Context()).ProjectID, f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) getIssue(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issueId")
	if !ok {
		return
	}

	issue, err := h.issues.Get(r.Context(), ScopeFrom(r.Context()).ProjectID, issueID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *Handler) createIssue(w http.ResponseWriter, r *http.Request) {
	var req services.CreateIssueInput
	if !decodeJSON(w, r, &req) {
		return
	}

	scope := ScopeFrom(r.Context())
	issue, err := h.issues.Create(r.Context(), scope.ProjectID, scope.User.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (h *Handler) updateIssue(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issueId")
	if !ok {
		return
	}
	var patch models.IssuePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	scope := ScopeFrom(r.Context())
	issue, err := h.issues.Update(r.Context(), scope.ProjectID, issueID, scope.User.ID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *Handler) deleteIssue(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issueId")
	if !ok {
		return
	}

	scope := ScopeFrom(r.Context())
	if err := h.issues.Delete(r.Context(), scope.ProjectID, issueID, scope.User.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issueId")
	if !ok {
		return
	}

	list, err := h.issues.Comments(r.Context(), ScopeFrom(r.Context()).ProjectID, issueID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issueId")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	scope := ScopeFrom(r.Context())
	c, err := h.issues.AddComment(r.Context(), scope.ProjectID, issueID, scope.User, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
