package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/diewo77/go-factures/auth"
	"github.com/diewo77/go-factures/internal/config"
	"github.com/diewo77/go-factures/internal/db"
	"github.com/diewo77/go-factures/internal/handlers"
	"github.com/diewo77/go-factures/internal/logging"
	"github.com/diewo77/go-factures/internal/services"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.App.Dev)
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	auth.SetSecret(cfg.App.SessionSecret)

	// Users always live in SQL, whatever the invoice store.
	dbConn, err := db.Connect(cfg.Database, logger)
	if err != nil {
		return err
	}
	if err := db.Migrate(dbConn, cfg); err != nil {
		return err
	}
	logger.Info("migrations completed", zap.Bool("sql_migrations", cfg.App.Migrations))
	if *migrateOnlyFlag {
		return nil
	}

	st, closeStore, err := openStore(ctx, cfg, dbConn, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()

	svc := services.NewInvoiceService(st, logger)
	authHandler := handlers.NewAuthHandler(dbConn, logger)
	auth.SetUserVerifier(authHandler.UserExists)

	app := NewApp(Options{
		Auth:           authHandler,
		Invoices:       handlers.NewInvoiceHandler(svc),
		Company:        handlers.NewCompanyHandler(svc),
		Log:            logger,
		LoginRateLimit: cfg.App.LoginRateLimit,
		Dev:            cfg.App.Dev,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
		logger.Info("shutdown signal received")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
