package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-factures/httpx"
	"github.com/diewo77/go-factures/i18n"
	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/pdf"
	"github.com/diewo77/go-factures/internal/services"
	"github.com/diewo77/go-factures/validation"
)

// PersistedHeader tells the client whether the invoice it received was stored.
const PersistedHeader = "X-Invoice-Persisted"

type InvoiceHandler struct {
	Svc *services.InvoiceService
}

func NewInvoiceHandler(svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{Svc: svc}
}

// draftRequest is the JSON body of create and update. The date is kept as a
// string so an empty value means "today" instead of a decode error.
type draftRequest struct {
	Date          string            `json:"date"`
	ClientName    string            `json:"clientName"`
	ClientAddress string            `json:"clientAddress"`
	ClientPhone   string            `json:"clientPhone"`
	ClientCodeTVA string            `json:"clientCodeTVA"`
	ClientCode    string            `json:"clientCode"`
	Chauffeur     string            `json:"chauffeur"`
	Vehicule      string            `json:"vehicule"`
	VRef          string            `json:"vref"`
	Items         []models.LineItem `json:"items"`
	TVARate       *decimal.Decimal  `json:"tvaRate"`
}

func (req draftRequest) draft() (models.Draft, validation.Violations) {
	v := validation.Violations{}
	d := models.Draft{
		ClientName:    strings.TrimSpace(req.ClientName),
		ClientAddress: strings.TrimSpace(req.ClientAddress),
		ClientPhone:   strings.TrimSpace(req.ClientPhone),
		ClientCodeTVA: strings.TrimSpace(req.ClientCodeTVA),
		ClientCode:    strings.TrimSpace(req.ClientCode),
		Chauffeur:     strings.TrimSpace(req.Chauffeur),
		Vehicule:      strings.TrimSpace(req.Vehicule),
		VRef:          strings.TrimSpace(req.VRef),
		Items:         req.Items,
		TVARate:       req.TVARate,
	}
	if s := strings.TrimSpace(req.Date); s != "" {
		date, err := civil.ParseDate(s)
		if err != nil {
			v.Add("date", "invalid_date")
		}
		d.Date = date
	}
	return d, v
}

func (h *InvoiceHandler) readDraft(w http.ResponseWriter, r *http.Request) (models.Draft, bool) {
	var req draftRequest
	if !decodeJSON(w, r, &req) {
		return models.Draft{}, false
	}
	d, v := req.draft()
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", i18n.TranslateAll(Lang(r), v))
		return models.Draft{}, false
	}
	return d, true
}

// List: GET /invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	listing, err := h.Svc.List(r.Context(), acct)
	if err != nil {
		writeError(w, r, err, "internal_error")
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

// New: GET /invoices/new returns the blank form values.
func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	next, err := h.Svc.List(r.Context(), acct)
	if err != nil {
		writeError(w, r, err, "internal_error")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"draft": h.Svc.NewDraft(), "number": next.NextNumber})
}

// Create: POST /invoices issues the invoice and answers with its PDF.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	d, ok := h.readDraft(w, r)
	if !ok {
		return
	}
	doc, err := h.Svc.Issue(r.Context(), acct, d)
	if err != nil {
		writeError(w, r, err, "save_failed")
		return
	}
	writeDocument(w, r, doc, http.StatusCreated)
}

// View: GET /invoices/{id}
func (h *InvoiceHandler) View(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	inv, err := h.Svc.Get(r.Context(), acct, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "internal_error")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Update: POST /invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	d, ok := h.readDraft(w, r)
	if !ok {
		return
	}
	doc, err := h.Svc.Update(r.Context(), acct, r.PathValue("id"), d)
	if err != nil {
		writeError(w, r, err, "save_failed")
		return
	}
	writeDocument(w, r, doc, http.StatusOK)
}

// Delete: POST /invoices/{id}/delete
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	if err := h.Svc.Delete(r.Context(), acct, r.PathValue("id")); err != nil {
		writeError(w, r, err, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PDF: GET /invoices/{id}/pdf
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	doc, err := h.Svc.Download(r.Context(), acct, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "internal_error")
		return
	}
	httpx.Attachment(w, doc.FileName, pdf.ContentType, doc.PDF)
}

// Reset: POST /reset drops the account data on the local backend.
func (h *InvoiceHandler) Reset(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	if err := h.Svc.Reset(r.Context(), acct); err != nil {
		writeError(w, r, err, "internal_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type documentResponse struct {
	Invoice   models.Invoice `json:"invoice"`
	FileName  string         `json:"fileName"`
	Persisted bool           `json:"persisted"`
}

// writeDocument sends the PDF, or the invoice as JSON when asked for.
func writeDocument(w http.ResponseWriter, r *http.Request, doc services.Document, status int) {
	w.Header().Set(PersistedHeader, strconv.FormatBool(doc.Persisted))
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, documentResponse{Invoice: doc.Invoice, FileName: doc.FileName, Persisted: doc.Persisted})
		return
	}
	httpx.Attachment(w, doc.FileName, pdf.ContentType, doc.PDF)
}
