package server

import (
	"context"
	"database/sql"
	"net/http"

	"folio/internal/audit"
	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/customers"
	"folio/internal/documents"
	"folio/internal/mailer"
	"folio/internal/models"
	"folio/internal/numbering"
	"folio/internal/payments"
	"folio/internal/reports"
	"folio/internal/websocket"
)

// ContextKey is the type used for request context keys.
type ContextKey string

const CtxUser ContextKey = "user"

// App holds shared dependencies for the application.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Hub    *websocket.Hub
	Audit  *audit.Logger

	Auth      *auth.Service
	Customers *customers.Service
	Documents *documents.Service
	Payments  *payments.Service
	Mailer    *mailer.Service
	Reports   *reports.Service
}

// NewApp wires every service over db. A nil sender selects SMTP delivery
// from cfg.
func NewApp(cfg *config.Config, db *sql.DB, sender mailer.Sender) *App {
	hub := websocket.NewHub()
	auditLog := audit.New(db, hub)
	if sender == nil {
		sender = mailer.NewSMTPSender(cfg.SMTP, cfg.SenderAddress())
	}

	app := &App{
		Config:    cfg,
		DB:        db,
		Hub:       hub,
		Audit:     auditLog,
		Auth:      auth.NewService(db, auditLog),
		Customers: customers.NewService(db, auditLog),
		Documents: documents.NewService(db, numbering.New(cfg.Numbering), cfg.Defaults, auditLog),
		Payments:  payments.NewService(db, auditLog),
		Reports:   reports.NewService(db, auditLog),
	}
	app.Mailer = mailer.NewService(db, sender, app.Documents, app.Customers, mailer.Options{
		Company:   cfg.Company,
		AssetsDir: cfg.AssetsDir,
		Audit:     auditLog,
	})
	return app
}

// WithUser returns a copy of ctx carrying the signed-in user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, CtxUser, u)
}

// UserFrom returns the signed-in user, or nil.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(CtxUser).(*models.User)
	return u
}

// Actor returns the id of the signed-in user, or "" for anonymous requests.
func Actor(r *http.Request) string {
	if u := UserFrom(r.Context()); u != nil {
		return u.ID
	}
	return ""
}

type holderKey struct{}

// userHolder carries the authenticated user id back out to the access log.
type userHolder struct{ userID string }

func withHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func holderFrom(ctx context.Context) *userHolder {
	h, _ := ctx.Value(holderKey{}).(*userHolder)
	return h
}
