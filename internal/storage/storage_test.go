package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckdocs/internal/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://files.test/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Upload(ctx, []byte("pdf"), "INV-202501-0001.pdf", "invoices", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/invoices/INV-202501-0001.pdf", url)

	_, err = os.Stat(filepath.Join(dir, "invoices", "INV-202501-0001.pdf"))
	require.NoError(t, err)

	data, err := s.Download(ctx, "INV-202501-0001.pdf", "invoices")
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(data))
}

func TestLocalStoreNestedAndMissing(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "http://files.test")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Upload(ctx, []byte("docx"), "global/Invoice/classic-v1.docx", "doc-templates", "")
	require.NoError(t, err)
	_, err = s.Download(ctx, "global/Invoice/classic-v1.docx", "doc-templates")
	require.NoError(t, err)

	_, err = s.Download(ctx, "nope.docx", "doc-templates")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectsTraversal(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Upload(context.Background(), []byte("x"), "../etc/passwd", "invoices", "")
	assert.Error(t, err)
	_, err = s.Download(context.Background(), "/abs", "invoices")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	url, err := s.Upload(ctx, []byte("png"), "INV-1.png", "doc-previews", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "mem://doc-previews/INV-1.png", url)
	assert.Equal(t, "image/png", s.ContentType("doc-previews", "INV-1.png"))

	data, err := s.Download(ctx, "INV-1.png", "doc-previews")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	_, err = s.Download(ctx, "INV-1.png", "invoices")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")
	store, root, err := Open(config.StorageConfig{Driver: "local", LocalDir: dir, PublicBaseURL: "http://localhost:3001/files"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	assert.Equal(t, dir, root)

	_, _, err = Open(config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
