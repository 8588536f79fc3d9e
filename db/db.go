package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

var schema = []struct {
	table string
	query string
}{
	{"bling_tokens", `
	CREATE TABLE IF NOT EXISTS bling_tokens (
		account_number INTEGER PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`},
	{"product_cmv", `
	CREATE TABLE IF NOT EXISTS product_cmv (
		product_name TEXT PRIMARY KEY,
		cmv_unitario TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`},
	{"account_categories", `
	CREATE TABLE IF NOT EXISTS account_categories (
		description TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`},
	{"monthly_config", `
	CREATE TABLE IF NOT EXISTS monthly_config (
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		aliquota TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (month, year)
	)`},
	{"monthly_results", `
	CREATE TABLE IF NOT EXISTS monthly_results (
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		total_receita TEXT NOT NULL,
		total_impostos TEXT NOT NULL,
		total_cmv TEXT NOT NULL,
		total_mc TEXT NOT NULL,
		total_despesas TEXT NOT NULL,
		resultado_operacional TEXT NOT NULL,
		products_detail TEXT NOT NULL,
		calculated_at TEXT NOT NULL,
		PRIMARY KEY (month, year)
	)`},
}

// Initialize creates the necessary tables if they don't exist
func (db *DB) Initialize() error {
	for _, s := range schema {
		if _, err := db.Exec(s.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.table, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// placeholders returns "?, ?, ..." for an IN clause.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}
