package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/go-factures/httpx"
	"github.com/diewo77/go-factures/i18n"
	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/services"
)

type CompanyHandler struct {
	Svc *services.InvoiceService
}

func NewCompanyHandler(svc *services.InvoiceService) *CompanyHandler {
	return &CompanyHandler{Svc: svc}
}

// Edit: GET /settings returns the company info, defaults on first use.
func (h *CompanyHandler) Edit(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	info, err := h.Svc.Company(r.Context(), acct)
	if err != nil {
		writeError(w, r, err, "internal_error")
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

// Update: POST /settings replaces the company info (JSON or form).
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	var info models.CompanyInfo
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if !decodeJSON(w, r, &info) {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", i18n.T(Lang(r), "invalid_json"))
			return
		}
		info = models.CompanyInfo{
			Name:       r.FormValue("name"),
			Address:    r.FormValue("address"),
			Phone:      r.FormValue("phone"),
			CodeTVA:    r.FormValue("codeTVA"),
			RC:         r.FormValue("rc"),
			CodeDouane: r.FormValue("codeDouane"),
		}
	}
	info = trimCompany(info)
	if err := h.Svc.SaveCompany(r.Context(), acct, info); err != nil {
		writeError(w, r, err, "save_failed")
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

func trimCompany(info models.CompanyInfo) models.CompanyInfo {
	info.Name = strings.TrimSpace(info.Name)
	info.Address = strings.TrimSpace(info.Address)
	info.Phone = strings.TrimSpace(info.Phone)
	info.CodeTVA = strings.TrimSpace(info.CodeTVA)
	info.RC = strings.TrimSpace(info.RC)
	info.CodeDouane = strings.TrimSpace(info.CodeDouane)
	return info
}
