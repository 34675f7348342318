// Package handlers exposes the invoicing workflows over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diewo77/go-factures/auth"
	"github.com/diewo77/go-factures/httpx"
	"github.com/diewo77/go-factures/i18n"
	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/services"
	"github.com/diewo77/go-factures/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Lang returns the message language: the "lang" cookie, else Accept-Language.
func Lang(r *http.Request) string {
	if c, err := r.Cookie("lang"); err == nil && (c.Value == "fr" || c.Value == "en") {
		return c.Value
	}
	return i18n.DetectLanguage(r.Header.Get("Accept-Language"))
}

func account(r *http.Request) (string, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", false
	}
	return models.AccountID(uid), true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", i18n.T(Lang(r), "invalid_json"))
		return false
	}
	return true
}

// writeError maps service errors to status codes. fallback names the 500 code.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	lang := Lang(r)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", i18n.TranslateAll(lang, verr.Violations))
	case errors.Is(err, store.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", i18n.T(lang, "not_found"))
	case errors.Is(err, services.ErrResetUnsupported):
		httpx.JSONError(w, http.StatusConflict, "reset_unsupported", i18n.T(lang, "reset_unsupported"))
	default:
		httpx.JSONError(w, http.StatusInternalServerError, fallback, i18n.T(lang, fallback))
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", i18n.T(Lang(r), "unauthorized"))
}
