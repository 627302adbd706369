package documents

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	docs "github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/storage"
)

// memStore is an in-memory Store and numbering.Store
type memStore struct {
	mu         sync.Mutex
	docs       []*models.Document
	businesses map[uuid.UUID]*models.Business
	lastCalls  int
}

func newMemStore(businesses ...*models.Business) *memStore {
	s := &memStore{businesses: make(map[uuid.UUID]*models.Business)}
	for _, b := range businesses {
		s.businesses[b.ID] = b
	}
	return s
}

func clone(d *models.Document) *models.Document {
	c := *d
	c.Lines = append([]models.DocumentLine(nil), d.Lines...)
	return &c
}

func (s *memStore) CreateDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.BusinessID == doc.BusinessID && d.Type == doc.Type && d.Number == doc.Number {
			return gorm.ErrDuplicatedKey
		}
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	for i := range doc.Lines {
		doc.Lines[i].DocumentID = doc.ID
	}
	s.docs = append(s.docs, clone(doc))
	return nil
}

func (s *memStore) GetDocument(_ context.Context, businessID, id uuid.UUID) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.ID == id && d.BusinessID == businessID {
			return clone(d), nil
		}
	}
	return nil, docs.ErrNotFound
}

func (s *memStore) ListDocuments(_ context.Context, f ListFilter) ([]models.Document, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Document
	for i := len(s.docs) - 1; i >= 0; i-- {
		d := s.docs[i]
		if d.BusinessID != f.BusinessID || (f.Type != "" && d.Type != f.Type) || (f.Status != "" && d.Status != f.Status) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(d.Number+" "+d.CustomerName), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, *clone(d))
	}
	start := (f.Page - 1) * f.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], int64(len(matched)), nil
}

func (s *memStore) UpdateDocument(_ context.Context, doc *models.Document, replaceLines bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.docs {
		if d.ID == doc.ID {
			c := clone(doc)
			if !replaceLines {
				c.Lines = d.Lines
			}
			s.docs[i] = c
			return nil
		}
	}
	return docs.ErrNotFound
}

func (s *memStore) GetBusiness(_ context.Context, id uuid.UUID) (*models.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok {
		return nil, docs.ErrNotFound
	}
	c := *b
	return &c, nil
}

// LastNumber implements numbering.Store
func (s *memStore) LastNumber(_ context.Context, businessID uuid.UUID, docType models.DocumentType, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCalls++
	for i := len(s.docs) - 1; i >= 0; i-- {
		d := s.docs[i]
		if d.BusinessID == businessID && d.Type == docType && strings.HasPrefix(d.Number, prefix) {
			return d.Number, nil
		}
	}
	return "", nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *memStore) stored(id uuid.UUID) *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.ID == id {
			return clone(d)
		}
	}
	return nil
}

// memTemplates serves templates by id for both lookup interfaces
type memTemplates map[uuid.UUID]*models.Template

func (m memTemplates) FindTemplate(_ context.Context, id uuid.UUID) (*models.Template, error) {
	return m[id], nil
}

func (m memTemplates) GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	return m.FindTemplate(ctx, id)
}

// recorder collects published events
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(_ uuid.UUID, event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// failingUploads rejects uploads whose name ends with suffix
type failingUploads struct {
	*storage.MemoryStore
	suffix string
}

func (f failingUploads) Upload(ctx context.Context, data []byte, name, container, contentType string) (string, error) {
	if strings.HasSuffix(name, f.suffix) {
		return "", context.DeadlineExceeded
	}
	return f.MemoryStore.Upload(ctx, data, name, container, contentType)
}

// syncBuffer is a log sink safe for concurrent renders
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
