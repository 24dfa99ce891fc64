package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/atharvakonge/paper-trader/internal/config"
)

// Open connects to Postgres and verifies the connection
func Open(cfg config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	database, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = database.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(5 * time.Minute)

	return database, nil
}

// InitSchema creates the two ledger tables if they do not exist yet
func InitSchema(database *sql.DB) error {
	_, err := database.Exec(`
        CREATE TABLE IF NOT EXISTS accounts (
            id SERIAL PRIMARY KEY,
            username TEXT UNIQUE NOT NULL,
            credential_hash TEXT NOT NULL,
            balance NUMERIC(20,4) NOT NULL DEFAULT 10000 CHECK (balance >= 0),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `)
	if err != nil {
		return fmt.Errorf("error creating accounts table: %w", err)
	}

	_, err = database.Exec(`
        CREATE TABLE IF NOT EXISTS positions (
            id SERIAL PRIMARY KEY,
            account_id INTEGER NOT NULL REFERENCES accounts(id),
            symbol TEXT NOT NULL,
            average_cost NUMERIC(20,4) NOT NULL,
            quantity NUMERIC(20,8) NOT NULL CHECK (quantity > 0),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (account_id, symbol)
        )
    `)
	if err != nil {
		return fmt.Errorf("error creating positions table: %w", err)
	}

	return nil
}
