package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/goproj/internal/server/services"
)

func (h *Handler) listAttachments(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issueId")
	if !ok {
		return
	}

	list, err := h.attachments.List(r.Context(), ScopeFrom(r.Context()).ProjectID, issueID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) createAttachment(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issueId")
	if !ok {
		return
	}
	var req services.CreateAttachmentInput
	if !decodeJSON(w, r, &req) {
		return
	}

	scope := ScopeFrom(r.Context())
	up, err := h.attachments.Create(r.Context(), scope.ProjectID, issueID, scope.User.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, up)
}

// downloadAttachment redirects to a short-lived presigned GET URL.
func (h *Handler) downloadAttachment(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issueId")
	if !ok {
		return
	}
	attachmentID, ok := pathID(w, r, "attachmentId")
	if !ok {
		return
	}

	url, err := h.attachments.DownloadURL(r.Context(), ScopeFrom(r.Context()).ProjectID, issueID, attachmentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issueId")
	if !ok {
		return
	}
	attachmentID, ok := pathID(w, r, "attachmentId")
	if !ok {
		return
	}

	scope := ScopeFrom(r.Context())
	if err := h.attachments.Delete(r.Context(), scope.ProjectID, issueID, attachmentID, scope.User.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) storageStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.attachments.Stats(r.Context(), ScopeFrom(r.Context()).ProjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
