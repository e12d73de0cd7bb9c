package sales

import (
	"net/http"

	"folio/internal/apperr"
	"folio/internal/documents"
	"folio/internal/handlers/common"
	"folio/internal/models"
	"folio/internal/pdf"
	"folio/internal/response"
	"folio/internal/server"
)

// ListDocuments handles GET /api/v1/documents?type=&customerId=&from=&to=&limit=.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := documents.Filter{
		Type:       models.DocumentType(q.Get("type")),
		CustomerID: q.Get("customerId"),
	}
	if f.Type != "" && !f.Type.Valid() {
		response.Error(w, apperr.Validation("invalid type",
			apperr.FieldError{Field: "type", Message: "must be QUOTATION, PROFORMA or INVOICE"}))
		return
	}
	var err error
	if f.CreatedFrom, err = common.QueryTime(r, "from"); err != nil {
		response.Error(w, err)
		return
	}
	if f.CreatedTo, err = common.QueryTime(r, "to"); err != nil {
		response.Error(w, err)
		return
	}
	if f.Limit, err = common.QueryInt(r, "limit", 0); err != nil {
		response.Error(w, err)
		return
	}

	list, err := h.Documents.List(r.Context(), f)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONMeta(w, list, len(list), f.Limit)
}

// CreateDocument handles POST /api/v1/documents.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var in documents.CreateInput
	if err := response.DecodeBody(r, &in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	doc, err := h.Documents.Create(r.Context(), server.Actor(r), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, doc)
}

// GetDocument handles GET /api/v1/documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := h.Documents.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, doc)
}

// UpdateDocument handles PUT /api/v1/documents/{id}.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request, id string) {
	var in documents.UpdateInput
	if err := response.DecodeBody(r, &in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	doc, err := h.Documents.Update(r.Context(), server.Actor(r), id, in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, doc)
}

// DeleteDocument handles DELETE /api/v1/documents/{id}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Documents.Delete(r.Context(), server.Actor(r), id); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, map[string]string{"status": "deleted", "id": id})
}

// ConvertRequest is the body of POST /api/v1/documents/{id}/convert.
type ConvertRequest struct {
	TargetType models.DocumentType `json:"target_type"`
}

// ConvertDocument handles POST /api/v1/documents/{id}/convert.
func (h *Handler) ConvertDocument(w http.ResponseWriter, r *http.Request, id string) {
	var req ConvertRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	doc, err := h.Documents.Convert(r.Context(), server.Actor(r), id, req.TargetType)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, doc)
}

// GetDocumentSummary handles GET /api/v1/documents/{id}/summary.
func (h *Handler) GetDocumentSummary(w http.ResponseWriter, r *http.Request, id string) {
	sum, err := h.Payments.Summary(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, sum)
}

// DownloadDocumentPDF handles GET /api/v1/documents/{id}/pdf.
func (h *Handler) DownloadDocumentPDF(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := h.Documents.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	cust, err := h.Customers.Get(r.Context(), doc.CustomerID)
	if err != nil {
		response.Error(w, err)
		return
	}
	data, err := pdf.Render(pdf.Input{
		Document: doc,
		Customer: cust,
		Company:  h.Company,
		Logo:     pdf.FindLogo(h.AssetsDir),
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	common.Attachment(w, pdf.Filename(doc), "application/pdf", data)
}
