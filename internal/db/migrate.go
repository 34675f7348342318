// Package db opens the SQL connection and keeps the schema up to date.
package db

import (
	"embed"
	"errors"
	"fmt"
	"regexp"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-factures/internal/config"
	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/store/sqlstore"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// connection retries, to let Postgres start alongside the app
const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

var passwordPattern = regexp.MustCompile(`(password=)(\S+)`)

// MaskDSN hides the password of a key=value DSN for logging.
func MaskDSN(dsn string) string {
	return passwordPattern.ReplaceAllString(dsn, `${1}***`)
}

// Connect opens the configured database, retrying while it comes up.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		log.Info("opening sqlite database", zap.String("path", cfg.SQLiteDSN()))
		dialector = sqlite.Open(cfg.SQLiteDSN())
	default:
		log.Info("connecting to database", zap.String("dsn", MaskDSN(cfg.DSN())))
		dialector = postgres.Open(cfg.DSN())
	}

	var conn *gorm.DB
	var err error
	for i := 1; i <= connectAttempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = conn.Exec("SELECT 1").Error
		}
		if err == nil {
			return conn, nil
		}
		log.Warn("database not ready", zap.Int("attempt", i), zap.Error(err))
		if i < connectAttempts {
			time.Sleep(connectBackoff)
		}
	}
	return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
}

// AutoMigrate creates or updates every table with gorm.
func AutoMigrate(conn *gorm.DB) error {
	tables := append([]any{&models.User{}}, sqlstore.Models()...)
	for _, m := range tables {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// Migrate prepares the schema. Postgres with MIGRATIONS enabled runs the
// embedded SQL migrations; everything else uses AutoMigrate.
func Migrate(conn *gorm.DB, cfg *config.Config) error {
	if cfg.App.Migrations && cfg.Database.Driver == "postgres" {
		if err := RunSQLMigrations(cfg.Database.URL()); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := AutoMigrate(conn); err != nil {
		return err
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"users", "invoices", "invoice_items", "invoice_counters", "company_infos"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies the embedded migrations to a postgres URL.
func RunSQLMigrations(databaseURL string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
