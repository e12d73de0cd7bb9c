package sales

import (
	"net/http"
	"time"

	"folio/internal/apperr"
	"folio/internal/database"
	"folio/internal/handlers/common"
	"folio/internal/models"
	"folio/internal/payments"
	"folio/internal/response"
	"folio/internal/server"

	"github.com/shopspring/decimal"
)

// PaymentRequest is the body of POST /api/v1/payments. DateReceived accepts
// YYYY-MM-DD or an RFC 3339 timestamp.
type PaymentRequest struct {
	DocumentID   string               `json:"document_id"`
	CustomerID   string               `json:"customer_id"`
	Amount       decimal.Decimal      `json:"amount"`
	Method       models.PaymentMethod `json:"method"`
	DateReceived string               `json:"date_received"`
	Reference    string               `json:"reference"`
	Notes        string               `json:"notes"`
}

// PaymentPatch is the body of PATCH /api/v1/payments/{id}.
type PaymentPatch struct {
	Amount          *decimal.Decimal      `json:"amount"`
	Method          *models.PaymentMethod `json:"method"`
	DateReceived    *string               `json:"date_received"`
	Reference       *string               `json:"reference"`
	Notes           *string               `json:"notes"`
	ExpectedVersion *int                  `json:"expected_version"`
}

func parseReceived(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := database.ParseTime(s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date_received",
			apperr.FieldError{Field: "date_received", Message: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"})
	}
	return t, nil
}

// ListPayments handles GET /api/v1/payments?documentId=&customerId=&limit=.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	limit, err := common.QueryInt(r, "limit", 0)
	if err != nil {
		response.Error(w, err)
		return
	}
	list, err := h.Payments.List(r.Context(), payments.Filter{
		DocumentID: r.URL.Query().Get("documentId"),
		CustomerID: r.URL.Query().Get("customerId"),
		Limit:      limit,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONMeta(w, list, len(list), limit)
}

// RecordPayment handles POST /api/v1/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	received, err := parseReceived(req.DateReceived)
	if err != nil {
		response.Error(w, err)
		return
	}
	p, err := h.Payments.Record(r.Context(), server.Actor(r), payments.RecordInput{
		DocumentID:   req.DocumentID,
		CustomerID:   req.CustomerID,
		Amount:       req.Amount,
		Method:       req.Method,
		DateReceived: received,
		Reference:    req.Reference,
		Notes:        req.Notes,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, p)
}

// GetPayment handles GET /api/v1/payments/{id}.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.Payments.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, p)
}

// UpdatePayment handles PATCH /api/v1/payments/{id}.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request, id string) {
	var patch PaymentPatch
	if err := response.DecodeBody(r, &patch); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	in := payments.UpdateInput{
		Amount:          patch.Amount,
		Method:          patch.Method,
		Reference:       patch.Reference,
		Notes:           patch.Notes,
		ExpectedVersion: patch.ExpectedVersion,
	}
	if patch.DateReceived != nil {
		received, err := parseReceived(*patch.DateReceived)
		if err != nil {
			response.Error(w, err)
			return
		}
		in.DateReceived = &received
	}
	p, err := h.Payments.Update(r.Context(), server.Actor(r), id, in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, p)
}

// ListPaymentRevisions handles GET /api/v1/payments/{id}/revisions.
func (h *Handler) ListPaymentRevisions(w http.ResponseWriter, r *http.Request, id string) {
	revs, err := h.Payments.Revisions(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, revs)
}
