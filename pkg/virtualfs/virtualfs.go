package virtualfs

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/antibyte/basic64/pkg/configuration"
	"github.com/antibyte/basic64/pkg/logger"
	"github.com/antibyte/basic64/pkg/storage"
)

// OwnerResolver maps a session id to a storage owner key. Authenticated
// sessions resolve to their username so files survive reconnects; guest
// sessions resolve to a session-scoped key.
type OwnerResolver func(sessionID string) string

// VFS stores program files in the sqlite files table. It satisfies the
// interpreter's FileSystem interface.
type VFS struct {
	db          *sql.DB
	resolve     OwnerResolver
	maxFileSize int
	maxFiles    int
}

// New builds a VFS over the shared database.
func New(db *sql.DB, resolve OwnerResolver) *VFS {
	return &VFS{
		db:          db,
		resolve:     resolve,
		maxFileSize: configuration.GetInt("Database", "max_file_size", 64*1024),
		maxFiles:    configuration.GetInt("Database", "max_files_per_user", 64),
	}
}

// normalizeName canonicalizes a program name: uppercase, and a .BAS
// extension when none is given.
func normalizeName(name string) (string, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if strings.ContainsAny(name, "/\\:*?\"<>|") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if !strings.Contains(name, ".") {
		name += ".BAS"
	}
	if len(name) > 64 {
		return "", fmt.Errorf("file name too long")
	}
	return name, nil
}

func (v *VFS) ReadFile(sessionID, name string) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	owner := v.resolve(sessionID)
	var content string
	err = v.db.QueryRow(
		`SELECT content FROM files WHERE owner = ? AND name = ?`, owner, name,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("file not found: %s", name)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return content, nil
}

func (v *VFS) WriteFile(sessionID, name, content string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if len(content) > v.maxFileSize {
		return fmt.Errorf("file exceeds %d bytes", v.maxFileSize)
	}
	owner := v.resolve(sessionID)

	var count int
	if err := v.db.QueryRow(`SELECT COUNT(*) FROM files WHERE owner = ?`, owner).Scan(&count); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	exists, err := v.fileExists(owner, name)
	if err != nil {
		return err
	}
	if !exists && count >= v.maxFiles {
		return fmt.Errorf("file limit reached (%d)", v.maxFiles)
	}

	_, err = v.db.Exec(
		`INSERT INTO files (owner, name, content, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner, name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		owner, name, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	logger.Debug(logger.AreaFileSystem, "wrote %s for %s (%d bytes)", name, owner, len(content))
	return nil
}

func (v *VFS) ListFiles(sessionID string) ([]string, error) {
	owner := v.resolve(sessionID)
	rows, err := v.db.Query(`SELECT name FROM files WHERE owner = ? ORDER BY name`, owner)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteFile removes a stored program.
func (v *VFS) DeleteFile(sessionID, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	owner := v.resolve(sessionID)
	res, err := v.db.Exec(`DELETE FROM files WHERE owner = ? AND name = ?`, owner, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PurgeOwner drops every file belonging to an owner key. Used when a guest
// session expires.
func (v *VFS) PurgeOwner(owner string) error {
	_, err := v.db.Exec(`DELETE FROM files WHERE owner = ?`, owner)
	return err
}

func (v *VFS) fileExists(owner, name string) (bool, error) {
	var n int
	err := v.db.QueryRow(`SELECT COUNT(*) FROM files WHERE owner = ? AND name = ?`, owner, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
