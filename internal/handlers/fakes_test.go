package handlers

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	docs "github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/services/documents"
	"github.com/xelth-com/eckdocs/internal/storage"
)

// docStore is an in-memory documents.Store and numbering.Store
type docStore struct {
	mu         sync.Mutex
	docs       []models.Document
	businesses map[uuid.UUID]models.Business
}

func copyDoc(d models.Document) *models.Document {
	d.Lines = append([]models.DocumentLine(nil), d.Lines...)
	return &d
}

func (s *docStore) CreateDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ID = uuid.New()
	s.docs = append(s.docs, *copyDoc(*doc))
	return nil
}

func (s *docStore) GetDocument(_ context.Context, businessID, id uuid.UUID) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.ID == id && d.BusinessID == businessID {
			return copyDoc(d), nil
		}
	}
	return nil, docs.ErrNotFound
}

func (s *docStore) ListDocuments(_ context.Context, f documents.ListFilter) ([]models.Document, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Document
	for _, d := range s.docs {
		if d.BusinessID == f.BusinessID && (f.Type == "" || d.Type == f.Type) {
			out = append(out, d)
		}
	}
	return out, int64(len(out)), nil
}

func (s *docStore) UpdateDocument(_ context.Context, doc *models.Document, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID == doc.ID {
			s.docs[i] = *copyDoc(*doc)
			return nil
		}
	}
	return docs.ErrNotFound
}

func (s *docStore) GetBusiness(_ context.Context, id uuid.UUID) (*models.Business, error) {
	b, ok := s.businesses[id]
	if !ok {
		return nil, docs.ErrNotFound
	}
	return &b, nil
}

func (s *docStore) LastNumber(_ context.Context, businessID uuid.UUID, docType models.DocumentType, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.docs) - 1; i >= 0; i-- {
		d := s.docs[i]
		if d.BusinessID == businessID && d.Type == docType && strings.HasPrefix(d.Number, prefix) {
			return d.Number, nil
		}
	}
	return "", nil
}

// memberStore is an in-memory businesses.Store
type memberStore struct {
	members map[string]uuid.UUID
}

func (s *memberStore) CreateWithOwner(_ context.Context, b *models.Business, userID string) error {
	b.ID = uuid.New()
	s.members[userID] = b.ID
	return nil
}

func (s *memberStore) ListForUser(_ context.Context, userID string) ([]models.Business, error) {
	if id, ok := s.members[userID]; ok {
		return []models.Business{{ID: id}}, nil
	}
	return nil, nil
}

func (s *memberStore) Membership(_ context.Context, userID string, businessID uuid.UUID) (*models.Membership, error) {
	if s.members[userID] == businessID {
		return &models.Membership{UserID: userID, BusinessID: businessID, Status: "active"}, nil
	}
	return nil, nil
}

// tplStore is an in-memory templates.Store
type tplStore struct {
	mu        sync.Mutex
	templates []models.Template
}

func (s *tplStore) ListTemplates(_ context.Context, businessID uuid.UUID, docType models.DocumentType) ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Template
	for _, t := range s.templates {
		if t.UsableBy(businessID) && (docType == "" || t.Type == docType) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *tplStore) GetTemplate(_ context.Context, id uuid.UUID) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.templates {
		if t.ID == id {
			c := t
			return &c, nil
		}
	}
	return nil, nil
}

func (s *tplStore) CreateTemplate(_ context.Context, tpl *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl.ID = uuid.New()
	if tpl.IsDefault {
		for i := range s.templates {
			if s.templates[i].Type == tpl.Type {
				s.templates[i].IsDefault = false
			}
		}
	}
	s.templates = append(s.templates, *tpl)
	return nil
}

func (s *tplStore) LatestVersion(context.Context, *uuid.UUID, models.DocumentType, string) (int, error) {
	return 0, nil
}

func (s *tplStore) SetDefault(_ context.Context, tpl *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.templates {
		if s.templates[i].Type == tpl.Type {
			s.templates[i].IsDefault = s.templates[i].ID == tpl.ID
		}
	}
	return nil
}

func (s *tplStore) DefaultTemplate(context.Context, *uuid.UUID, models.DocumentType) (*models.Template, error) {
	return nil, nil
}

func (s *tplStore) UpdatePreview(_ context.Context, id uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.templates {
		if s.templates[i].ID == id {
			s.templates[i].PreviewURL = url
		}
	}
	return nil
}

// flakyBlobs fails uploads of PDFs while broken is set
type flakyBlobs struct {
	*storage.MemoryStore
	mu     sync.Mutex
	broken bool
}

func (b *flakyBlobs) setBroken(v bool) {
	b.mu.Lock()
	b.broken = v
	b.mu.Unlock()
}

func (b *flakyBlobs) Upload(ctx context.Context, data []byte, name, container, contentType string) (string, error) {
	b.mu.Lock()
	broken := b.broken
	b.mu.Unlock()
	if broken && strings.HasSuffix(name, ".pdf") {
		return "", context.DeadlineExceeded
	}
	return b.MemoryStore.Upload(ctx, data, name, container, contentType)
}
