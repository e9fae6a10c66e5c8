package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDatabase initializes the database connection
func InitDatabase() error {
	// Get database connection string from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Test the connection
	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")
	return nil
}

// CreateTables creates the necessary tables if they don't exist
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id SERIAL PRIMARY KEY,
			trigger VARCHAR(20) NOT NULL DEFAULT 'schedule',
			status VARCHAR(20) NOT NULL DEFAULT 'running',
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			finished_at TIMESTAMP,
			total INTEGER DEFAULT 0,
			succeeded INTEGER DEFAULT 0,
			failed INTEGER DEFAULT 0,
			skipped INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS scraped_prices (
			id SERIAL PRIMARY KEY,
			run_id INTEGER REFERENCES scrape_runs(id) ON DELETE CASCADE,
			alias_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			store_name TEXT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			currency VARCHAR(3) DEFAULT 'EUR',
			original_price DECIMAL(10,2),
			promotion_type VARCHAR(32),
			promotion_text TEXT,
			discount_value DECIMAL(10,2),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_scraped_prices_run ON scraped_prices (run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scraped_prices_product ON scraped_prices (product_id, created_at)`,
	}

	for _, query := range queries {
		_, err := DB.Exec(query)
		if err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	return nil
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
