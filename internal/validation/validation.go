package validation

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"strings"

	"folio/internal/apperr"

	"github.com/shopspring/decimal"
)

// ValidationError represents a structured validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects multiple field errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when nothing was collected, otherwise a validation error
// carrying every field.
func (ve *ValidationErrors) Err() error {
	if !ve.HasErrors() {
		return nil
	}
	fields := make([]apperr.FieldError, len(ve.Errors))
	for i, e := range ve.Errors {
		fields[i] = apperr.FieldError{Field: e.Field, Message: e.Message}
	}
	return apperr.Validation(ve.Error(), fields...)
}

// RequireField checks a required string field is non-empty.
func RequireField(ve *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

// ValidateEnum checks a field is one of allowed values.
func ValidateEnum(ve *ValidationErrors, field, value string, allowed []string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	ve.Add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// ValidatePositive checks a decimal field is > 0.
func ValidatePositive(ve *ValidationErrors, field string, value decimal.Decimal) {
	if !value.IsPositive() {
		ve.Add(field, "must be greater than zero")
	}
}

// ValidateNonNegative checks a decimal field is >= 0.
func ValidateNonNegative(ve *ValidationErrors, field string, value decimal.Decimal) {
	if value.IsNegative() {
		ve.Add(field, "must be non-negative")
	}
}

// MaxAmount bounds any single monetary value.
var MaxAmount = decimal.New(1, 12)

// ValidateMaxAmount checks a monetary value stays below MaxAmount.
func ValidateMaxAmount(ve *ValidationErrors, field string, value decimal.Decimal) {
	if value.Abs().GreaterThanOrEqual(MaxAmount) {
		ve.Add(field, "exceeds maximum allowed amount")
	}
}

// ValidateEmail checks a field is a valid email (if non-empty).
func ValidateEmail(ve *ValidationErrors, field, value string) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		ve.Add(field, "must be a valid email address")
	}
}

// ValidateEmails checks every entry of a list of addresses.
func ValidateEmails(ve *ValidationErrors, field string, values []string) {
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			ve.Add(fmt.Sprintf("%s[%d]", field, i), "is required")
			continue
		}
		ValidateEmail(ve, fmt.Sprintf("%s[%d]", field, i), v)
	}
}

// Maximum lengths for free text.
const (
	MaxStringLength = 500
	MaxTextLength   = 20000
)

// ValidateMaxLength checks string doesn't exceed max length.
func ValidateMaxLength(ve *ValidationErrors, field, value string, max int) {
	if len(value) > max {
		ve.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// MaxLogoSize is the largest accepted logo upload.
const MaxLogoSize = 5 * 1024 * 1024

// ImageExtensions maps accepted image content types to file extensions.
var ImageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

// ValidateImageUpload validates an uploaded image's size and content type and
// returns the extension to store it under.
func ValidateImageUpload(ve *ValidationErrors, filename string, size int64, contentType string) string {
	if size == 0 {
		ve.Add("file", "cannot be empty (0 bytes)")
		return ""
	}
	if size > MaxLogoSize {
		ve.Add("file", fmt.Sprintf("exceeds maximum size of %d MB", MaxLogoSize/(1024*1024)))
		return ""
	}
	if !strings.HasPrefix(contentType, "image/") {
		ve.Add("file", "must be an image")
		return ""
	}
	ext, ok := ImageExtensions[contentType]
	if !ok {
		ve.Add("file", fmt.Sprintf("unsupported image type %s", contentType))
		return ""
	}
	ValidateFilename(ve, filename)
	return ext
}

// ValidateFilename checks for path traversal and control characters.
func ValidateFilename(ve *ValidationErrors, filename string) {
	if filename == "" {
		ve.Add("filename", "is required")
		return
	}
	if strings.Contains(filename, "..") {
		ve.Add("filename", "contains invalid path traversal sequence (..)")
	}
	if filepath.IsAbs(filename) || strings.HasPrefix(filename, "\\") {
		ve.Add("filename", "cannot be an absolute path")
	}
	if strings.ContainsAny(filename, "\x00\r\n") {
		ve.Add("filename", "contains control characters")
	}
}
