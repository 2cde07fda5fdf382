package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/database"
	"github.com/straye-as/jobsite-crm/internal/database/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

// openDatabase opens the preference database named in configuration with
// the plain database/sql driver goose expects
func openDatabase(cfg *config.PreferencesConfig) (*sql.DB, string, error) {
	dialect, err := database.GooseDialect(cfg.Backend)
	if err != nil {
		return nil, "", err
	}

	var db *sql.DB
	switch cfg.Backend {
	case database.DialectSQLite:
		db, err = sql.Open("sqlite3", cfg.SQLitePath)
	default:
		db, err = sql.Open("postgres", cfg.Database.ConnectionString())
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, dialect, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		return fmt.Errorf("usage: migrate [up|down|status|version|create]")
	}
	command := args[0]
	arguments := args[1:]

	// create writes a new file into the source tree and needs no database
	if command == "create" {
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		if err := goose.Create(nil, "./internal/database/migrations", arguments[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		fmt.Printf("Migration created: %s\n", arguments[0])
		return nil
	}

	db, dialect, err := openDatabase(&cfg.Preferences)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Migrations are embedded in the binary
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	switch command {
	case "up":
		if err := database.Migrate(db, cfg.Preferences.Backend); err != nil {
			return err
		}
		fmt.Println("Migrations applied successfully")

	case "down":
		if err := goose.Down(db, "."); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
		fmt.Println("Migration rolled back successfully")

	case "status":
		if err := goose.Status(db, "."); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

	case "version":
		if err := goose.Version(db, "."); err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}

	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	return nil
}
