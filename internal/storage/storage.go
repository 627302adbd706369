// Package storage persists blobs (templates, rendered artifacts, signatures)
// grouped by container.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
)

// ErrNotFound is returned by Download when the blob does not exist
var ErrNotFound = errors.New("blob not found")

// BlobStore is the blob storage collaborator
type BlobStore interface {
	Download(ctx context.Context, blobPath, container string) ([]byte, error)
	Upload(ctx context.Context, data []byte, fileName, container, contentType string) (string, error)
}

// cleanKey rejects traversal and normalises separators
func cleanKey(container, name string) (string, error) {
	if container == "" || name == "" {
		return "", fmt.Errorf("container and name are required")
	}
	for _, part := range []string{container, name} {
		if strings.Contains(part, "..") || strings.HasPrefix(part, "/") {
			return "", fmt.Errorf("invalid blob path %q", part)
		}
	}
	return path.Join(container, strings.ReplaceAll(name, "\\", "/")), nil
}

// MemoryStore keeps blobs in memory. URLs use the mem:// scheme.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	types map[string]string
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte), types: make(map[string]string)}
}

// Download implements BlobStore
func (m *MemoryStore) Download(_ context.Context, blobPath, container string) ([]byte, error) {
	key, err := cleanKey(container, blobPath)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), data...), nil
}

// Upload implements BlobStore
func (m *MemoryStore) Upload(_ context.Context, data []byte, fileName, container, contentType string) (string, error) {
	key, err := cleanKey(container, fileName)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	m.types[key] = contentType
	return "mem://" + key, nil
}

// ContentType returns what a blob was uploaded with
func (m *MemoryStore) ContentType(container, name string) string {
	key, _ := cleanKey(container, name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.types[key]
}

// Keys lists stored blob keys
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	return keys
}
