package auth

import (
	"strings"

	"folio/internal/apperr"
	"folio/internal/models"
)

// Operation is a guarded action.
type Operation string

const (
	OpViewCustomers   Operation = "customers.view"
	OpCreateCustomer  Operation = "customers.create"
	OpEditCustomer    Operation = "customers.edit"
	OpViewDocuments   Operation = "documents.view"
	OpCreateDocument  Operation = "documents.create"
	OpEditDocument    Operation = "documents.edit"
	OpDeleteDocument  Operation = "documents.delete"
	OpConvertDocument Operation = "documents.convert"
	OpSendEmail       Operation = "documents.email"
	OpViewPayments    Operation = "payments.view"
	OpRecordPayment   Operation = "payments.record"
	OpEditPayment     Operation = "payments.edit"
	OpViewReports     Operation = "reports.view"
	OpManageUsers     Operation = "users.manage"
	OpEditSettings    Operation = "settings.edit"
)

// AllOperations lists every operation.
var AllOperations = []Operation{
	OpViewCustomers, OpCreateCustomer, OpEditCustomer,
	OpViewDocuments, OpCreateDocument, OpEditDocument, OpDeleteDocument, OpConvertDocument, OpSendEmail,
	OpViewPayments, OpRecordPayment, OpEditPayment,
	OpViewReports, OpManageUsers, OpEditSettings,
}

func set(ops ...Operation) map[Operation]bool {
	m := make(map[Operation]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}

// capabilities is the complete role → operation table.
var capabilities = map[models.Role]map[Operation]bool{
	models.RoleAdmin: set(AllOperations...),
	models.RoleStaff: set(
		OpViewCustomers, OpCreateCustomer, OpEditCustomer,
		OpViewDocuments, OpCreateDocument, OpEditDocument, OpConvertDocument, OpSendEmail,
		OpViewPayments, OpRecordPayment, OpEditPayment,
		OpViewReports,
	),
	models.RoleViewer: set(OpViewCustomers, OpViewDocuments, OpViewPayments, OpViewReports),
}

// Can reports whether role may perform op.
func Can(role models.Role, op Operation) bool {
	return capabilities[role][op]
}

// Authorize returns a forbidden error unless role may perform op.
func Authorize(role models.Role, op Operation) error {
	if Can(role, op) {
		return nil
	}
	return apperr.Forbidden("role " + string(role) + " may not perform " + string(op))
}

// Operations lists what role may do, in AllOperations order.
func Operations(role models.Role) []Operation {
	out := []Operation{}
	for _, op := range AllOperations {
		if Can(role, op) {
			out = append(out, op)
		}
	}
	return out
}

// MapAPIPathToOperation maps a path below /api/v1/ and a method to the
// operation it performs. It returns "" for paths every signed-in user may
// reach.
func MapAPIPathToOperation(apiPath, method string) Operation {
	parts := strings.Split(strings.Trim(apiPath, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	read := method == "GET" || method == "HEAD"
	sub := ""
	if len(parts) >= 3 {
		sub = parts[2]
	}

	switch parts[0] {
	case "customers":
		switch {
		case read:
			return OpViewCustomers
		case method == "POST":
			return OpCreateCustomer
		default:
			return OpEditCustomer
		}
	case "documents":
		switch {
		case sub == "convert":
			return OpConvertDocument
		case sub == "email":
			return OpSendEmail
		case read:
			return OpViewDocuments
		case method == "POST":
			return OpCreateDocument
		case method == "DELETE":
			return OpDeleteDocument
		default:
			return OpEditDocument
		}
	case "payments":
		switch {
		case read:
			return OpViewPayments
		case method == "POST":
			return OpRecordPayment
		default:
			return OpEditPayment
		}
	case "reports", "analytics", "dashboard":
		return OpViewReports
	case "users":
		return OpManageUsers
	case "settings", "email":
		return OpEditSettings
	}
	return ""
}
