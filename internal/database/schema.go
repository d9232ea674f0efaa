package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as RFC3339 strings and the seat grid and
// reservation log of a showing as JSON text, so the same statements run
// on both drivers.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL DEFAULT '',
		email VARCHAR(191) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'client',
		created_at VARCHAR(40) NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at VARCHAR(40) NOT NULL,
		revoked_at VARCHAR(40) NULL,
		created_at VARCHAR(40) NOT NULL,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS films (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		duration_min INT UNSIGNED NOT NULL,
		language VARCHAR(64) NOT NULL DEFAULT '',
		genre VARCHAR(64) NOT NULL DEFAULT '',
		image_url VARCHAR(512) NOT NULL DEFAULT '',
		trailer VARCHAR(512) NOT NULL DEFAULT '',
		director VARCHAR(255) NOT NULL DEFAULT '',
		release_year INT UNSIGNED NOT NULL DEFAULT 0,
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS room_templates (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		total_rows INT UNSIGNED NOT NULL,
		seats_per_row INT UNSIGNED NOT NULL,
		seats LONGTEXT NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		UNIQUE KEY uq_room_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS showings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		film_id BIGINT UNSIGNED NOT NULL,
		room_id BIGINT UNSIGNED NOT NULL,
		date CHAR(10) NOT NULL,
		time CHAR(5) NOT NULL,
		price_cents INT UNSIGNED NOT NULL DEFAULT 0,
		seats LONGTEXT NOT NULL,
		reservations LONGTEXT NOT NULL,
		version BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL,
		KEY idx_showings_room_date (room_id, date),
		KEY idx_showings_film (film_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		film_id BIGINT UNSIGNED NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		UNIQUE KEY uq_favorite (user_id, film_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'client',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		revoked_at TEXT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_user ON refresh_tokens (user_id)`,
	`CREATE TABLE IF NOT EXISTS films (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		duration_min INTEGER NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		genre TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		trailer TEXT NOT NULL DEFAULT '',
		director TEXT NOT NULL DEFAULT '',
		release_year INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS room_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		total_rows INTEGER NOT NULL,
		seats_per_row INTEGER NOT NULL,
		seats TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS showings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		film_id INTEGER NOT NULL,
		room_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		price_cents INTEGER NOT NULL DEFAULT 0,
		seats TEXT NOT NULL,
		reservations TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_showings_room_date ON showings (room_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_showings_film ON showings (film_id)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		film_id INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (user_id, film_id)
	)`,
}

// Migrate creates missing tables for the given driver.  Statements are
// idempotent and safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverMySQL:
		stmts = mysqlSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
