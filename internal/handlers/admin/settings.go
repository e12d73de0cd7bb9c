package admin

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"folio/internal/apperr"
	"folio/internal/audit"
	"folio/internal/pdf"
	"folio/internal/response"
	"folio/internal/server"
	"folio/internal/validation"
)

// HandleUploadLogo stores the multipart "logo" file as the document logo,
// replacing any previous one.
func (h *Handler) HandleUploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxLogoSize+1<<20)
	if err := r.ParseMultipartForm(validation.MaxLogoSize); err != nil {
		response.BadRequest(w, "invalid multipart form or file too large")
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		response.Error(w, apperr.Validation("logo file is required",
			apperr.FieldError{Field: "logo", Message: "is required"}))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, validation.MaxLogoSize+1))
	if err != nil {
		response.Error(w, fmt.Errorf("read upload: %w", err))
		return
	}
	ve := &validation.ValidationErrors{}
	ext := validation.ValidateImageUpload(ve, header.Filename, int64(len(data)), http.DetectContentType(data))
	if err := ve.Err(); err != nil {
		response.Error(w, err)
		return
	}

	if err := os.MkdirAll(h.AssetsDir, 0o755); err != nil {
		response.Error(w, fmt.Errorf("create assets dir: %w", err))
		return
	}
	for _, old := range pdf.LogoExtensions {
		os.Remove(filepath.Join(h.AssetsDir, "logo."+old))
	}
	name := "logo" + ext
	if err := os.WriteFile(filepath.Join(h.AssetsDir, name), data, 0o644); err != nil {
		response.Error(w, fmt.Errorf("save logo: %w", err))
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{UserID: server.Actor(r), Action: audit.ActionUpdate, Module: audit.ModuleSettings, RecordID: "logo", Summary: "Uploaded logo " + name})
	response.JSON(w, map[string]string{"filename": name})
}

// TestEmailRequest is the body of POST /api/v1/email/test.
type TestEmailRequest struct {
	To string `json:"to"`
}

// HandleTestEmail sends a test message with the configured SMTP settings.
func (h *Handler) HandleTestEmail(w http.ResponseWriter, r *http.Request) {
	var req TestEmailRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.Mailer.SendTest(r.Context(), req.To); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, map[string]string{"status": "sent", "to": req.To})
}
