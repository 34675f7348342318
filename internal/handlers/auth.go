package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/go-factures/auth"
	"github.com/diewo77/go-factures/httpx"
	"github.com/diewo77/go-factures/i18n"
	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/validation"
)

type AuthHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAuthHandler(db *gorm.DB, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{db: db, log: log}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if !decodeJSON(w, r, &c) {
			return c, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", i18n.T(Lang(r), "invalid_json"))
			return c, false
		}
		c.Email = r.FormValue("email")
		c.Password = r.FormValue("password")
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c, true
}

func authError(w http.ResponseWriter, r *http.Request, status int, code string) {
	httpx.JSONError(w, status, code, i18n.T(Lang(r), code))
}

// checkCredentials returns the first problem with the submitted fields.
func checkCredentials(c credentials, minPassword int) string {
	v := validation.Violations{}
	if err := validation.Struct(c, v); err != nil {
		return "invalid_email"
	}
	if _, bad := v["email"]; bad {
		return "invalid_email"
	}
	if len(c.Password) < minPassword || v["password"] != "" {
		return "weak_password"
	}
	return ""
}

// minPasswordLength matches the rule shown on signup.
const minPasswordLength = 6

func signedIn(w http.ResponseWriter, r *http.Request, u models.User, status int) {
	auth.CreateSession(w, u.ID)
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/invoices", http.StatusSeeOther)
		return
	}
	httpx.JSON(w, status, u)
}

// Signup: POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	c, ok := readCredentials(w, r)
	if !ok {
		return
	}
	if code := checkCredentials(c, minPasswordLength); code != "" {
		authError(w, r, http.StatusUnprocessableEntity, code)
		return
	}
	var count int64
	if err := h.db.WithContext(r.Context()).Model(&models.User{}).Where("email = ?", c.Email).Count(&count).Error; err != nil {
		h.log.Error("signup lookup failed", zap.Error(err))
		authError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	if count > 0 {
		authError(w, r, http.StatusConflict, "email_in_use")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		authError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	u := models.User{Email: c.Email, Password: string(hash)}
	if err := h.db.WithContext(r.Context()).Create(&u).Error; err != nil {
		h.log.Error("create user failed", zap.Error(err))
		authError(w, r, http.StatusConflict, "email_in_use")
		return
	}
	h.log.Info("user signed up", zap.Uint("user", u.ID))
	signedIn(w, r, u, http.StatusCreated)
}

// Login: POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	c, ok := readCredentials(w, r)
	if !ok {
		return
	}
	if code := checkCredentials(c, 1); code != "" {
		if code == "weak_password" {
			code = "wrong_password"
		}
		authError(w, r, http.StatusUnprocessableEntity, code)
		return
	}
	var u models.User
	err := h.db.WithContext(r.Context()).Where("email = ?", c.Email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		authError(w, r, http.StatusUnauthorized, "user_not_found")
		return
	}
	if err != nil {
		h.log.Error("login lookup failed", zap.Error(err))
		authError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(c.Password)) != nil {
		authError(w, r, http.StatusUnauthorized, "wrong_password")
		return
	}
	signedIn(w, r, u, http.StatusOK)
}

// Logout: POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UserExists backs auth.SetUserVerifier.
func (h *AuthHandler) UserExists(ctx context.Context, uid uint) bool {
	var count int64
	err := h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error
	return err == nil && count > 0
}
