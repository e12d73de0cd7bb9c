package common

import (
	"net/http"

	"folio/internal/reports"
	"folio/internal/response"
	"folio/internal/server"
)

// HandleReportDownload renders a report as CSV or XLSX.
//
//	GET /api/v1/reports/download?type=monthly|customer|outstanding&format=csv|xlsx&month=YYYY-MM&customerId=
func (h *Handler) HandleReportDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := reports.ParseFormat(q.Get("format"))
	if err != nil {
		response.Error(w, err)
		return
	}
	typ := reports.Type(q.Get("type"))
	if typ == "" {
		typ = reports.Monthly
	}
	p := reports.Params{Type: typ, Month: q.Get("month"), CustomerID: q.Get("customerId")}

	export, err := h.Reports.Export(r.Context(), server.Actor(r), p, format)
	if err != nil {
		response.Error(w, err)
		return
	}
	Attachment(w, export.Filename, export.ContentType, export.Data)
}

// HandleMonthlyAnalytics returns invoiced versus received per month.
//
//	GET /api/v1/analytics/monthly?customerId=&month=YYYY-MM&documentType=
func (h *Handler) HandleMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	points, err := h.Reports.MonthlyAnalytics(r.Context(), reports.AnalyticsFilter{
		CustomerID:   q.Get("customerId"),
		Month:        q.Get("month"),
		DocumentType: q.Get("documentType"),
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, points)
}

// HandleDashboard returns headline totals.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Reports.Dashboard(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, d)
}
