package validation

import "folio/internal/models"

// Enum values accepted on input. These MUST match the CHECK constraints in the
// database package.
var (
	ValidDocumentTypes  = enumStrings(models.DocumentTypes)
	ValidCustomerTypes  = []string{string(models.Individual), string(models.Company)}
	ValidPaymentMethods = enumStrings(models.PaymentMethods)
	ValidRoles          = []string{string(models.RoleAdmin), string(models.RoleStaff), string(models.RoleViewer)}
)

func enumStrings[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}
