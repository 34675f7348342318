package main

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/diewo77/go-factures/auth"
	"github.com/diewo77/go-factures/httpx"
	"github.com/diewo77/go-factures/i18n"
	"github.com/diewo77/go-factures/internal/handlers"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	handler http.Handler
	log     *zap.Logger

	auth     *handlers.AuthHandler
	invoices *handlers.InvoiceHandler
	company  *handlers.CompanyHandler

	loginLimit int
}

// Options configures NewApp.
type Options struct {
	Auth     *handlers.AuthHandler
	Invoices *handlers.InvoiceHandler
	Company  *handlers.CompanyHandler
	Log      *zap.Logger
	// LoginRateLimit is the number of login/signup attempts per minute and IP.
	LoginRateLimit int
	Dev            bool
}

// NewApp creates a new application with all routes configured.
func NewApp(opts Options) *App {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	app := &App{
		mux:        http.NewServeMux(),
		log:        log,
		auth:       opts.Auth,
		invoices:   opts.Invoices,
		company:    opts.Company,
		loginLimit: opts.LoginRateLimit,
	}
	app.setupRoutes()

	headers := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		IsDevelopment:         opts.Dev,
	})
	app.handler = withRecover(log, withLogging(log, headers.Handler(auth.Middleware(app.mux))))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	a.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public
	limited := a.rateLimit()
	a.mux.Handle("POST /signup", limited(http.HandlerFunc(a.auth.Signup)))
	a.mux.Handle("POST /login", limited(http.HandlerFunc(a.auth.Login)))
	a.mux.HandleFunc("POST /logout", a.auth.Logout)

	// Invoices
	ih := a.invoices
	a.mux.Handle("GET /invoices", auth.RequireAuth(http.HandlerFunc(ih.List)))
	a.mux.Handle("GET /invoices/new", auth.RequireAuth(http.HandlerFunc(ih.New)))
	a.mux.Handle("POST /invoices", auth.RequireAuth(http.HandlerFunc(ih.Create)))
	a.mux.Handle("GET /invoices/{id}", auth.RequireAuth(http.HandlerFunc(ih.View)))
	a.mux.Handle("POST /invoices/{id}", auth.RequireAuth(http.HandlerFunc(ih.Update)))
	a.mux.Handle("POST /invoices/{id}/delete", auth.RequireAuth(http.HandlerFunc(ih.Delete)))
	a.mux.Handle("GET /invoices/{id}/pdf", auth.RequireAuth(http.HandlerFunc(ih.PDF)))

	// Company Settings
	a.mux.Handle("GET /settings", auth.RequireAuth(http.HandlerFunc(a.company.Edit)))
	a.mux.Handle("POST /settings", auth.RequireAuth(http.HandlerFunc(a.company.Update)))
	a.mux.HandleFunc("GET /setup", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/settings", http.StatusMovedPermanently)
	})

	a.mux.Handle("POST /reset", auth.RequireAuth(http.HandlerFunc(ih.Reset)))
}

func (a *App) rateLimit() func(http.Handler) http.Handler {
	if a.loginLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(a.loginLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			a.log.Warn("login rate limit hit", zap.String("remote", r.RemoteAddr))
			httpx.JSONError(w, http.StatusTooManyRequests, "too_many_requests", i18n.T(handlers.Lang(r), "too_many_requests"))
		}),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging middleware.
func withLogging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func withRecover(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.Error("panic serving request", zap.Any("panic", v), zap.String("path", r.URL.Path), zap.Stack("stack"))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
