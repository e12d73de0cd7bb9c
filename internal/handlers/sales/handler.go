// Package sales serves customers, documents, payments and document email.
package sales

import (
	"folio/internal/config"
	"folio/internal/customers"
	"folio/internal/documents"
	"folio/internal/mailer"
	"folio/internal/payments"
	"folio/internal/server"
)

// Handler holds dependencies for sales handlers.
type Handler struct {
	Customers *customers.Service
	Documents *documents.Service
	Payments  *payments.Service
	Mailer    *mailer.Service

	// Company and AssetsDir feed PDF rendering.
	Company   config.CompanyConfig
	AssetsDir string
}

// New returns a Handler over app's services.
func New(app *server.App) *Handler {
	return &Handler{
		Customers: app.Customers,
		Documents: app.Documents,
		Payments:  app.Payments,
		Mailer:    app.Mailer,
		Company:   app.Config.Company,
		AssetsDir: app.Config.AssetsDir,
	}
}
