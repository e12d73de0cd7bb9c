// Package common holds helpers shared by the HTTP handlers, and the report,
// analytics and dashboard endpoints.
package common

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"folio/internal/apperr"
	"folio/internal/database"
	"folio/internal/reports"
)

// Handler holds dependencies for report handlers.
type Handler struct {
	Reports *reports.Service
}

// QueryInt reads a non-negative integer query parameter, or def when absent.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Validation("invalid "+key, apperr.FieldError{Field: key, Message: "must be a non-negative integer"})
	}
	return n, nil
}

// QueryTime reads a date or timestamp query parameter. The zero time is
// returned when absent.
func QueryTime(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := database.ParseTime(v)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid "+key, apperr.FieldError{Field: key, Message: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"})
	}
	return t, nil
}

// Attachment writes data as a file download.
func Attachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(filename, `"`, "")+`"`)
	w.Write(data)
}
