package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	// Seed the shared system categories
	if err := seedSystemCategories(db); err != nil {
		return nil, fmt.Errorf("failed to seed system categories: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create accounts table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			type VARCHAR(16) NOT NULL,
			currency CHAR(3) NOT NULL,
			color VARCHAR(16) NOT NULL DEFAULT '',
			deleted_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create categories table. user_id is NULL for system categories.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(64) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			color VARCHAR(16) NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 0,
			is_system BOOLEAN NOT NULL DEFAULT FALSE,
			is_override BOOLEAN NOT NULL DEFAULT FALSE,
			source_category_id VARCHAR(36) REFERENCES categories(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create transactions table. Income/expense rows use account_id and
	// category_id; transfers use from_account_id and to_account_id.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type VARCHAR(16) NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			amount NUMERIC(14,2) NOT NULL,
			currency CHAR(3) NOT NULL,
			account_id VARCHAR(36) REFERENCES accounts(id),
			category_id VARCHAR(36) REFERENCES categories(id),
			from_account_id VARCHAR(36) REFERENCES accounts(id),
			to_account_id VARCHAR(36) REFERENCES accounts(id),
			occurred_at TIMESTAMP NOT NULL,
			deleted_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Partial unique indexes carry the ledger uniqueness invariants:
	// account names collide only while both rows are active, and the two
	// category invariants split on is_override.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_active_name
			ON accounts(user_id, name) WHERE deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_kind
			ON categories(COALESCE(user_id, ''), name, kind) WHERE is_override = FALSE`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_override
			ON categories(user_id, source_category_id) WHERE is_override = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_from ON transactions(from_account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_to ON transactions(to_account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_deleted ON accounts(deleted_at) WHERE deleted_at IS NOT NULL`,
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}

// seedSystemCategories inserts the shared owner-less categories once.
// Re-running is a no-op: each insert is guarded by a name+kind existence
// check over the system rows.
func seedSystemCategories(db *sqlx.DB) error {
	seeds := []struct {
		name     string
		kind     string
		color    string
		priority int
	}{
		{"Salary", "income", "#2e7d32", 1},
		{"Gifts", "income", "#7b1fa2", 2},
		{"Other Income", "income", "#455a64", 9},
		{"Food", "expense", "#ef6c00", 1},
		{"Groceries", "expense", "#558b2f", 2},
		{"Transport", "expense", "#1565c0", 3},
		{"Housing", "expense", "#6d4c41", 4},
		{"Health", "expense", "#c62828", 5},
		{"Entertainment", "expense", "#00838f", 6},
		{"Other Expenses", "expense", "#455a64", 9},
	}

	query := `
		INSERT INTO categories (id, user_id, name, kind, color, priority, is_system, is_override, source_category_id, created_at, updated_at)
		SELECT gen_random_uuid()::text, NULL, $1, $2, $3, $4, TRUE, FALSE, NULL, NOW(), NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM categories WHERE user_id IS NULL AND name = $1 AND kind = $2
		)
	`

	for _, seed := range seeds {
		if _, err := db.Exec(query, seed.name, seed.kind, seed.color, seed.priority); err != nil {
			return err
		}
	}
	return nil
}
