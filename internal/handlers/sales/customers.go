package sales

import (
	"net/http"

	"folio/internal/customers"
	"folio/internal/handlers/common"
	"folio/internal/models"
	"folio/internal/response"
	"folio/internal/server"

	"github.com/shopspring/decimal"
)

// ListCustomers handles GET /api/v1/customers?search=&type=&limit=.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, err := common.QueryInt(r, "limit", 0)
	if err != nil {
		response.Error(w, err)
		return
	}
	f := customers.Filter{
		Search: r.URL.Query().Get("search"),
		Type:   models.CustomerType(r.URL.Query().Get("type")),
		Limit:  limit,
	}
	list, err := h.Customers.List(r.Context(), f)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONMeta(w, list, len(list), limit)
}

// CreateCustomer handles POST /api/v1/customers.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in customers.CreateInput
	if err := response.DecodeBody(r, &in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	c, err := h.Customers.Create(r.Context(), server.Actor(r), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, c)
}

// GetCustomer handles GET /api/v1/customers/{id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.Customers.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, c)
}

// UpdateCustomer handles PUT /api/v1/customers/{id}.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request, id string) {
	var in customers.UpdateInput
	if err := response.DecodeBody(r, &in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	c, err := h.Customers.Update(r.Context(), server.Actor(r), id, in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, c)
}

// CustomerBalance is the body of GET /api/v1/customers/{id}/balance.
type CustomerBalance struct {
	CustomerID         string          `json:"customer_id"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// GetCustomerBalance handles GET /api/v1/customers/{id}/balance.
func (h *Handler) GetCustomerBalance(w http.ResponseWriter, r *http.Request, id string) {
	bal, err := h.Customers.OutstandingBalance(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, CustomerBalance{CustomerID: id, OutstandingBalance: bal})
}
