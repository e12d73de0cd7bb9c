package admin_test

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"folio/internal/config"
	"folio/internal/handlers/admin"
	"folio/internal/models"
	"folio/internal/pdf"
	"folio/internal/server"
	"folio/internal/testutil"
)

func newHandler(t *testing.T) *admin.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := config.Default()
	cfg.AssetsDir = filepath.Join(t.TempDir(), "assets")
	return admin.New(server.NewApp(cfg, db, nil))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	mw.Close()
	req := httptest.NewRequest("POST", "/api/v1/settings/logo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(server.WithUser(req.Context(), &models.User{ID: "admin-1", Role: models.RoleAdmin}))
}

func TestUploadLogo(t *testing.T) {
	h := newHandler(t)

	// An older logo in another format is replaced.
	os.MkdirAll(h.AssetsDir, 0o755)
	os.WriteFile(filepath.Join(h.AssetsDir, "logo.gif"), []byte("GIF89a"), 0o644)

	w := httptest.NewRecorder()
	h.HandleUploadLogo(w, uploadRequest(t, "logo", "hotel.png", pngBytes(t)))
	testutil.AssertStatus(t, w, http.StatusOK)

	if got := pdf.FindLogo(h.AssetsDir); got != filepath.Join(h.AssetsDir, "logo.png") {
		t.Errorf("expected logo.png, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(h.AssetsDir, "logo.gif")); !os.IsNotExist(err) {
		t.Error("old logo should have been removed")
	}
}

func TestUploadLogoRejections(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		name  string
		field string
		data  []byte
	}{
		{"not an image", "logo", []byte("just some text, not a picture")},
		{"empty", "logo", []byte{}},
		{"wrong field", "file", []byte("x")},
		{"too large", "logo", append(pngBytes(t), make([]byte, 5*1024*1024)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleUploadLogo(w, uploadRequest(t, tt.field, "logo.png", tt.data))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
	if got := pdf.FindLogo(h.AssetsDir); got != "" {
		t.Errorf("no logo should be stored, found %q", got)
	}
}

func TestTestEmailUnconfigured(t *testing.T) {
	h := newHandler(t)
	req := httptest.NewRequest("POST", "/api/v1/email/test", bytes.NewBufferString(`{"to":"ops@example.com"}`))
	w := httptest.NewRecorder()
	h.HandleTestEmail(w, req)
	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
	if body := testutil.DecodeError(t, w); body["code"] != "CONFIGURATION_ERROR" {
		t.Errorf("unexpected body %v", body)
	}
}
