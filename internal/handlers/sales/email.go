package sales

import (
	"net/http"

	"folio/internal/mailer"
	"folio/internal/response"
	"folio/internal/server"
)

// SendDocumentEmail handles POST /api/v1/documents/{id}/email. The log entry
// is returned with 201 when the message went out.
func (h *Handler) SendDocumentEmail(w http.ResponseWriter, r *http.Request, id string) {
	var req mailer.Request
	if err := response.DecodeBody(r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	entry, err := h.Mailer.SendDocument(r.Context(), server.Actor(r), id, req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, entry)
}

// ListDocumentEmailLog handles GET /api/v1/documents/{id}/email-log.
func (h *Handler) ListDocumentEmailLog(w http.ResponseWriter, r *http.Request, id string) {
	entries, err := h.Mailer.Log(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, entries)
}
