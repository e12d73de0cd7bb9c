// Package routes maps URLs to handlers and assembles the middleware chain.
package routes

import (
	"net/http"
	"strings"

	"folio/internal/handlers/admin"
	"folio/internal/handlers/common"
	"folio/internal/handlers/sales"
	"folio/internal/response"
	"folio/internal/server"
	"folio/internal/websocket"
)

// New returns the application's HTTP handler.
func New(app *server.App, rl *server.RateLimiter) http.Handler {
	adminH := admin.New(app)
	salesH := sales.New(app)
	commonH := &common.Handler{Reports: app.Reports}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.DB.PingContext(r.Context()); err != nil {
			response.Err(w, "database unavailable", "UNAVAILABLE", http.StatusServiceUnavailable)
			return
		}
		response.JSON(w, map[string]string{"status": "ok"})
	})

	// Auth routes
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		adminH.HandleLogin(w, r)
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		adminH.HandleLogout(w, r)
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		adminH.HandleMe(w, r)
	})

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")
		n := len(parts)
		m := r.Method

		switch {
		// Customers
		case parts[0] == "customers" && n == 1 && m == "GET":
			salesH.ListCustomers(w, r)
		case parts[0] == "customers" && n == 1 && m == "POST":
			salesH.CreateCustomer(w, r)
		case parts[0] == "customers" && n == 2 && m == "GET":
			salesH.GetCustomer(w, r, parts[1])
		case parts[0] == "customers" && n == 2 && m == "PUT":
			salesH.UpdateCustomer(w, r, parts[1])
		case parts[0] == "customers" && n == 3 && parts[2] == "balance" && m == "GET":
			salesH.GetCustomerBalance(w, r, parts[1])

		// Documents
		case parts[0] == "documents" && n == 1 && m == "GET":
			salesH.ListDocuments(w, r)
		case parts[0] == "documents" && n == 1 && m == "POST":
			salesH.CreateDocument(w, r)
		case parts[0] == "documents" && n == 2 && m == "GET":
			salesH.GetDocument(w, r, parts[1])
		case parts[0] == "documents" && n == 2 && m == "PUT":
			salesH.UpdateDocument(w, r, parts[1])
		case parts[0] == "documents" && n == 2 && m == "DELETE":
			salesH.DeleteDocument(w, r, parts[1])
		case parts[0] == "documents" && n == 3 && parts[2] == "convert" && m == "POST":
			salesH.ConvertDocument(w, r, parts[1])
		case parts[0] == "documents" && n == 3 && parts[2] == "summary" && m == "GET":
			salesH.GetDocumentSummary(w, r, parts[1])
		case parts[0] == "documents" && n == 3 && parts[2] == "pdf" && m == "GET":
			salesH.DownloadDocumentPDF(w, r, parts[1])
		case parts[0] == "documents" && n == 3 && parts[2] == "email" && m == "POST":
			salesH.SendDocumentEmail(w, r, parts[1])
		case parts[0] == "documents" && n == 3 && parts[2] == "email-log" && m == "GET":
			salesH.ListDocumentEmailLog(w, r, parts[1])

		// Payments
		case parts[0] == "payments" && n == 1 && m == "GET":
			salesH.ListPayments(w, r)
		case parts[0] == "payments" && n == 1 && m == "POST":
			salesH.RecordPayment(w, r)
		case parts[0] == "payments" && n == 2 && m == "GET":
			salesH.GetPayment(w, r, parts[1])
		case parts[0] == "payments" && n == 2 && m == "PATCH":
			salesH.UpdatePayment(w, r, parts[1])
		case parts[0] == "payments" && n == 3 && parts[2] == "revisions" && m == "GET":
			salesH.ListPaymentRevisions(w, r, parts[1])

		// Reports
		case path == "reports/download" && m == "GET":
			commonH.HandleReportDownload(w, r)
		case path == "analytics/monthly" && m == "GET":
			commonH.HandleMonthlyAnalytics(w, r)
		case path == "dashboard" && m == "GET":
			commonH.HandleDashboard(w, r)

		// Admin
		case path == "email/test" && m == "POST":
			adminH.HandleTestEmail(w, r)
		case parts[0] == "users" && n == 1 && m == "GET":
			adminH.HandleListUsers(w, r)
		case parts[0] == "users" && n == 1 && m == "POST":
			adminH.HandleCreateUser(w, r)
		case parts[0] == "users" && n == 2 && m == "PUT":
			adminH.HandleUpdateUser(w, r, parts[1])
		case path == "settings/logo" && m == "POST":
			adminH.HandleUploadLogo(w, r)

		// Live updates
		case path == "ws" && m == "GET":
			websocket.HandleWebSocket(app.Hub, w, r)

		default:
			response.Err(w, "not found", "NOT_FOUND", http.StatusNotFound)
		}
	})

	var h http.Handler = mux
	h = server.RequireRBAC(h)
	h = server.RequireAuth(app.Auth)(h)
	h = server.GzipMiddleware(h)
	h = server.SecurityHeaders(h)
	h = server.LoggingMiddleware(h)
	if rl != nil {
		h = server.RateLimitMiddleware(rl)(h)
	}
	return h
}

func methodNotAllowed(w http.ResponseWriter) {
	response.Err(w, "method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
}
