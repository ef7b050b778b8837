// Package storage provides artifact storage for downloaded bulletins and run exports.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no artifact has the requested id.
var ErrNotFound = errors.New("artifact not found")

// Kind partitions the store.
type Kind string

const (
	KindSource Kind = "sources"
	KindExport Kind = "exports"
)

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Fingerprint string    `json:"fingerprint"` // hex sha256 of the content
	Path        string    `json:"path"`        // relative to the store root
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Put stores a file and returns its metadata
	Put(ctx context.Context, kind Kind, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Open retrieves a file by its ID
	Open(ctx context.Context, kind Kind, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, kind Kind, fileID uuid.UUID) error

	// List returns all files of a kind, oldest first
	List(ctx context.Context, kind Kind) ([]*FileInfo, error)

	// GetInfo returns metadata for a file without opening it
	GetInfo(ctx context.Context, kind Kind, fileID uuid.UUID) (*FileInfo, error)
}
