package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutOpen(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	info, err := s.Put(ctx, KindSource, "bulletin_0047.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size)
	assert.Len(t, info.Fingerprint, 64)
	assert.Equal(t, "bulletin_0047.pdf", filepath.Base(s.Location(info)))

	rc, got, err := s.Open(ctx, KindSource, info.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.Equal(t, info.Fingerprint, got.Fingerprint)
}

func TestLocalStorage_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	empty, err := s.List(ctx, KindExport)
	require.NoError(t, err)
	assert.Empty(t, empty)

	a, err := s.Put(ctx, KindExport, "records.xlsx", "", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := s.Put(ctx, KindExport, "issues.tsv", "", strings.NewReader("b"))
	require.NoError(t, err)
	_, err = s.Put(ctx, KindSource, "1.html", "", strings.NewReader("c"))
	require.NoError(t, err)

	files, err := s.List(ctx, KindExport)
	require.NoError(t, err)
	names := []string{}
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"records.xlsx", "issues.tsv"}, names)

	require.NoError(t, s.Delete(ctx, KindExport, a.ID))
	_, err = s.GetInfo(ctx, KindExport, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	files, err = s.List(ctx, KindExport)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, b.ID, files[0].ID)
}

func TestLocalStorage_Missing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	_, _, err = s.Open(context.Background(), KindSource, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "_etc_passwd", sanitizeFilename("/etc/passwd"))
	assert.Equal(t, "a_b.pdf", sanitizeFilename("a:b.pdf"))
}
