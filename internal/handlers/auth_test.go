package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-factures/httpx"
	"github.com/diewo77/go-factures/internal/models"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *gorm.DB) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dbi, err := gorm.Open(sqlite.Open("file:auth_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := dbi.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewAuthHandler(dbi, zaptest.NewLogger(t)), dbi
}

func postCredentials(h http.HandlerFunc, email, password string) *httptest.ResponseRecorder {
	body := `{"email":"` + email + `","password":"` + password + `"}`
	w := httptest.NewRecorder()
	h(w, jsonRequest(http.MethodPost, "/", body))
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var resp httpx.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v body=%s", err, w.Body.String())
	}
	msg, _ := resp.Details.(string)
	return resp.Error, msg
}

func hasSession(w *httptest.ResponseRecorder) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return true
		}
	}
	return false
}

func TestSignupAndLogin(t *testing.T) {
	h, dbi := setupAuthHandler(t)

	w := postCredentials(h.Signup, " Gerant@Example.com ", "secret1")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}
	if !hasSession(w) {
		t.Fatalf("no session after signup")
	}
	if strings.Contains(w.Body.String(), "secret1") || strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password leaked: %s", w.Body.String())
	}
	var u models.User
	if err := dbi.Where("email = ?", "gerant@example.com").First(&u).Error; err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.Password == "secret1" {
		t.Fatalf("password stored in clear")
	}
	if !h.UserExists(context.Background(), u.ID) || h.UserExists(context.Background(), u.ID+1) {
		t.Fatalf("UserExists mismatch")
	}

	w = postCredentials(h.Login, "gerant@example.com", "secret1")
	if w.Code != http.StatusOK || !hasSession(w) {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
}

func TestAuthErrorsInFrench(t *testing.T) {
	h, _ := setupAuthHandler(t)
	if w := postCredentials(h.Signup, "a@b.tn", "secret1"); w.Code != http.StatusCreated {
		t.Fatalf("seed signup: %d", w.Code)
	}

	cases := []struct {
		name    string
		handler http.HandlerFunc
		email   string
		pass    string
		status  int
		code    string
		message string
	}{
		{"duplicate", h.Signup, "a@b.tn", "secret1", http.StatusConflict, "email_in_use", "Cette adresse email est déjà utilisée"},
		{"invalid email", h.Signup, "pas-un-email", "secret1", http.StatusUnprocessableEntity, "invalid_email", "Adresse email invalide"},
		{"weak password", h.Signup, "c@d.tn", "123", http.StatusUnprocessableEntity, "weak_password", "Le mot de passe doit contenir au moins 6 caractères"},
		{"unknown user", h.Login, "x@y.tn", "secret1", http.StatusUnauthorized, "user_not_found", "Aucun compte avec cette adresse email"},
		{"wrong password", h.Login, "a@b.tn", "nope", http.StatusUnauthorized, "wrong_password", "Mot de passe incorrect"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postCredentials(tc.handler, tc.email, tc.pass)
			if w.Code != tc.status {
				t.Fatalf("expected %d got %d body=%s", tc.status, w.Code, w.Body.String())
			}
			code, msg := errorMessage(t, w)
			if code != tc.code || msg != tc.message {
				t.Fatalf("got %s %q want %s %q", code, msg, tc.code, tc.message)
			}
			if hasSession(w) {
				t.Fatalf("session set on failure")
			}
		})
	}
}

func TestLoginFormRedirects(t *testing.T) {
	h, _ := setupAuthHandler(t)
	if w := postCredentials(h.Signup, "form@b.tn", "secret1"); w.Code != http.StatusCreated {
		t.Fatalf("seed signup: %d", w.Code)
	}
	form := url.Values{"email": {"form@b.tn"}, "password": {"secret1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	h.Login(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/invoices" {
		t.Fatalf("expected redirect, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestLogout(t *testing.T) {
	h, _ := setupAuthHandler(t)
	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/logout", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Code)
	}
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("session cookie not cleared")
	}
}
