package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/antibyte/basic64/pkg/configuration"
	"github.com/antibyte/basic64/pkg/logger"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// InitDB opens the sqlite database named in the [Database] configuration
// section and creates the schema if needed.
func InitDB() (*sql.DB, error) {
	path := configuration.GetString("Database", "path", "basic64.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// The sqlite driver serializes writers; one connection avoids
	// SQLITE_BUSY churn under concurrent sessions.
	db.SetMaxOpenConns(1)
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info(logger.AreaDatabase, "database ready at %s", path)
	return db, nil
}

func createTables(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			last_login TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(owner, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_owner ON files(owner)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// TouchLastLogin records a successful login time for the user.
func TouchLastLogin(db *sql.DB, username string) error {
	_, err := db.Exec(`UPDATE users SET last_login = ? WHERE username = ?`, time.Now().UTC(), username)
	return err
}
