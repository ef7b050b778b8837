package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MetaDir is the per-kind directory holding the json sidecars.
const MetaDir = ".meta"

// LocalStorage implements Storage using the local filesystem. Files live at
// <base>/<kind>/<id>/<name> so the original file name survives.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// Location returns the absolute path of a stored file.
func (s *LocalStorage) Location(info *FileInfo) string {
	return filepath.Join(s.basePath, info.Path)
}

// Put stores a file and returns its metadata
func (s *LocalStorage) Put(ctx context.Context, kind Kind, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fileID := uuid.New()

	rel := filepath.Join(string(kind), fileID.String(), sanitizeFilename(filename))
	filePath := filepath.Join(s.basePath, rel)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		os.RemoveAll(filepath.Dir(filePath)) // Cleanup on error
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		Kind:        kind,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Fingerprint: hex.EncodeToString(h.Sum(nil)),
		Path:        rel,
		CreatedAt:   time.Now(),
	}

	if err := s.saveMetadata(info); err != nil {
		os.RemoveAll(filepath.Dir(filePath))
		return nil, err
	}

	return info, nil
}

// Open retrieves a file by its ID
func (s *LocalStorage) Open(ctx context.Context, kind Kind, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, kind, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(s.Location(info))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// Delete removes a file by its ID
func (s *LocalStorage) Delete(ctx context.Context, kind Kind, fileID uuid.UUID) error {
	info, err := s.GetInfo(ctx, kind, fileID)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Dir(s.Location(info))); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	os.Remove(s.metaPath(kind, fileID))

	return nil
}

// List returns all files of a kind, oldest first
func (s *LocalStorage) List(ctx context.Context, kind Kind) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.basePath, string(kind), MetaDir)
	entries, err := os.ReadDir(metaDir)
	if errors.Is(err, os.ErrNotExist) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}

		info, err := s.GetInfo(ctx, kind, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
	return files, nil
}

// GetInfo returns metadata for a file without opening it
func (s *LocalStorage) GetInfo(ctx context.Context, kind Kind, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(kind, fileID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &info, nil
}

func (s *LocalStorage) metaPath(kind Kind, fileID uuid.UUID) string {
	return filepath.Join(s.basePath, string(kind), MetaDir, fileID.String()+".json")
}

// saveMetadata saves file metadata to a JSON file
func (s *LocalStorage) saveMetadata(info *FileInfo) error {
	metaDir := filepath.Join(s.basePath, string(info.Kind), MetaDir)
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(s.metaPath(info.Kind, info.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
