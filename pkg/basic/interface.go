package basic

import "context"

// FileSystem is the storage surface SAVE, LOAD and FILES run against. The
// virtualfs package provides the production implementation; tests supply an
// in-memory fake.
type FileSystem interface {
	ReadFile(sessionID, name string) (string, error)
	WriteFile(sessionID, name, content string) error
	ListFiles(sessionID string) ([]string, error)
}

// ProgramFetcher retrieves remote program text for LOAD with a URL argument.
// The patch package provides the production implementation.
type ProgramFetcher interface {
	Fetch(ctx context.Context, location string) (string, error)
}
