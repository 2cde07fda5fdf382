// Package database opens the gorm connection used by the durable preference
// backend and applies its schema.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/database/migrations"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialects accepted by NewDatabase
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// NewDatabase creates a new database connection for the configured backend
func NewDatabase(cfg *config.PreferencesConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Backend {
	case DialectSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	case DialectPostgres:
		dialector = postgres.Open(cfg.Database.ConnectionString())
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", cfg.Backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Backend == DialectPostgres {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetimeDuration())
	} else {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// AutoMigrate runs automatic migrations (for development and tests only)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.PreferenceRecord{},
	)
}

// GooseDialect maps a preference backend to its goose dialect name
func GooseDialect(backend string) (string, error) {
	switch backend {
	case DialectSQLite:
		return "sqlite3", nil
	case DialectPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database backend: %s", backend)
	}
}

// Migrate applies the embedded schema migrations with goose
func Migrate(db *sql.DB, backend string) error {
	dialect, err := GooseDialect(backend)
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}
	return nil
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Ping()
}

// HealthCheckWithStats pings the database and returns its pool statistics
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}
