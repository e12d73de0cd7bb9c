// Package admin serves sign-in, user management and settings.
package admin

import (
	"folio/internal/audit"
	"folio/internal/auth"
	"folio/internal/mailer"
	"folio/internal/server"
)

// Handler holds dependencies for admin handlers.
type Handler struct {
	Auth      *auth.Service
	Mailer    *mailer.Service
	Audit     *audit.Logger
	AssetsDir string
}

// New returns a Handler over app's services.
func New(app *server.App) *Handler {
	return &Handler{
		Auth:      app.Auth,
		Mailer:    app.Mailer,
		Audit:     app.Audit,
		AssetsDir: app.Config.AssetsDir,
	}
}
