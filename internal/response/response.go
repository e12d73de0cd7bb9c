package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"folio/internal/apperr"
	"folio/internal/logger"
	"folio/internal/models"
)

// JSON writes a successful API response with the given data.
func JSON(w http.ResponseWriter, data interface{}) {
	JSONStatus(w, http.StatusOK, data)
}

// JSONStatus writes data in the envelope with an explicit status code.
func JSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.APIResponse{Data: data})
}

// JSONMeta writes a successful API response with list metadata.
func JSONMeta(w http.ResponseWriter, data interface{}, total, limit int) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.APIResponse{
		Data: data,
		Meta: &models.Meta{Total: total, Limit: limit},
	})
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

// Err writes a JSON error response with the given message and HTTP status code.
func Err(w http.ResponseWriter, msg, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorBody{Error: msg, Code: code})
}

// Status returns the HTTP status for an error kind.
func Status(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation, apperr.KindInvalidConversion:
		return http.StatusBadRequest
	case apperr.KindConfiguration:
		return http.StatusServiceUnavailable
	case apperr.KindConcurrency:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Error translates err into a status code and error body. Unclassified errors
// are logged and reported as a generic 500.
func Error(w http.ResponseWriter, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		log := logger.WithComponent("http")
		log.Error().Err(err).Msg("unhandled error")
		Err(w, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(e.Kind))
	json.NewEncoder(w).Encode(ErrorBody{Error: e.Message, Code: string(e.Kind), Fields: e.Fields})
}

// BadRequest reports a malformed request body or query.
func BadRequest(w http.ResponseWriter, msg string) {
	Err(w, msg, string(apperr.KindValidation), http.StatusBadRequest)
}

// DecodeBody decodes a JSON request body into the given value.
func DecodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
