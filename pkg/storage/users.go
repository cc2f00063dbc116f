package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/antibyte/basic64/pkg/logger"
)

// ErrInvalidCredentials covers both an unknown user and a wrong password so
// callers cannot distinguish the two.
var ErrInvalidCredentials = errors.New("invalid credentials")

var usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,31}$`)

// CreateUser registers an account with a bcrypt-hashed password.
func CreateUser(db *sql.DB, username, password string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("invalid username %q", username)
	}
	if len(password) < 6 {
		return errors.New("password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, string(hash), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("create user %s: %w", username, err)
	}
	logger.AuthInfo("user %s created", username)
	return nil
}

// Authenticate verifies a username/password pair.
func Authenticate(db *sql.DB, username, password string) error {
	var hash string
	err := db.QueryRow(`SELECT password_hash FROM users WHERE username = ?`, username).Scan(&hash)
	if err == sql.ErrNoRows {
		// Burn a comparison anyway so timing does not reveal whether the
		// account exists.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("lookup user %s: %w", username, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		logger.AuthWarn("failed login for %s", username)
		return ErrInvalidCredentials
	}
	if err := TouchLastLogin(db, username); err != nil {
		logger.AuthWarn("touch last_login for %s: %v", username, err)
	}
	return nil
}

// UserExists reports whether the account is registered.
func UserExists(db *sql.DB, username string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
