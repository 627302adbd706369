package templates

import (
	"bytes"
	"context"
	"image/png"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/render"
	"github.com/xelth-com/eckdocs/internal/render/pdf"
	"github.com/xelth-com/eckdocs/internal/storage"
	"github.com/xelth-com/eckdocs/internal/theme"
)

type memStore struct {
	mu        sync.Mutex
	templates []*models.Template
	createErr error
}

func (s *memStore) ListTemplates(_ context.Context, businessID uuid.UUID, docType models.DocumentType) ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Template
	for _, t := range s.templates {
		if t.UsableBy(businessID) && (docType == "" || t.Type == docType) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) GetTemplate(_ context.Context, id uuid.UUID) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.templates {
		if t.ID == id {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateTemplate(_ context.Context, tpl *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	if tpl.IsDefault {
		for _, t := range s.templates {
			if sameOwner(t.BusinessID, tpl.BusinessID) && t.Type == tpl.Type {
				t.IsDefault = false
			}
		}
	}
	c := *tpl
	s.templates = append(s.templates, &c)
	return nil
}

func (s *memStore) LatestVersion(_ context.Context, owner *uuid.UUID, docType models.DocumentType, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := 0
	for _, t := range s.templates {
		if sameOwner(t.BusinessID, owner) && t.Type == docType && strings.EqualFold(t.Name, name) && t.Version > v {
			v = t.Version
		}
	}
	return v, nil
}

func (s *memStore) SetDefault(_ context.Context, tpl *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.templates {
		if sameOwner(t.BusinessID, tpl.BusinessID) && t.Type == tpl.Type {
			t.IsDefault = t.ID == tpl.ID
		}
	}
	return nil
}

func (s *memStore) DefaultTemplate(_ context.Context, owner *uuid.UUID, docType models.DocumentType) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.templates {
		if sameOwner(t.BusinessID, owner) && t.Type == docType && t.IsDefault {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdatePreview(_ context.Context, id uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.templates {
		if t.ID == id {
			t.PreviewURL = url
		}
	}
	return nil
}

// previewer adapts the PDF renderer the way the document renderer does
type previewer struct{ r *pdf.Renderer }

func (p previewer) Preview(doc *models.Document, business *models.Business, th theme.Theme) ([]byte, error) {
	return p.r.Preview(render.Input{Document: doc, Business: business, Theme: th})
}

func newService(t *testing.T) (*Service, *memStore, *storage.MemoryStore) {
	t.Helper()
	store := &memStore{}
	blobs := storage.NewMemoryStore()
	svc := NewService(store, blobs, previewer{pdf.NewRenderer(pdf.Options{PreviewWidth: 400})}, Config{
		TemplatesContainer: "doc-templates",
		PreviewsContainer:  "doc-previews",
	})
	return svc, store, blobs
}

func starter(t *testing.T) []byte {
	t.Helper()
	data, err := render.StarterTemplate("Classic", theme.Default())
	require.NoError(t, err)
	return data
}

func TestUploadStoresVersionedBlob(t *testing.T) {
	svc, _, blobs := newService(t)
	biz := uuid.New()

	res, err := svc.Upload(context.Background(), UploadRequest{Owner: &biz, Type: models.DocumentTypeInvoice, Name: "Classic Blue", Data: starter(t)})
	require.NoError(t, err)
	assert.Equal(t, biz.String()+"/invoice/classic-blue-v1.docx", res.Template.BlobPath)
	assert.Equal(t, 1, res.Template.Version)
	assert.ElementsMatch(t, render.Tokens(), res.Tokens.Found)
	assert.Empty(t, res.Tokens.Unknown)

	stored, err := blobs.Download(context.Background(), res.Template.BlobPath, "doc-templates")
	require.NoError(t, err)
	assert.NotEmpty(t, stored)

	again, err := svc.Upload(context.Background(), UploadRequest{Owner: &biz, Type: models.DocumentTypeInvoice, Name: "classic blue", Data: starter(t)})
	require.NoError(t, err)
	assert.Equal(t, 2, again.Template.Version)
	assert.Equal(t, biz.String()+"/invoice/classic-blue-v2.docx", again.Template.BlobPath)
}

func TestUploadGlobalPath(t *testing.T) {
	svc, _, _ := newService(t)

	res, err := svc.Upload(context.Background(), UploadRequest{Type: models.DocumentTypeReceipt, Name: "Simple", Data: starter(t)})
	require.NoError(t, err)
	assert.Equal(t, "global/receipt/simple-v1.docx", res.Template.BlobPath)
	assert.True(t, res.Template.IsGlobal())
}

func TestUploadRejectsNonDocx(t *testing.T) {
	svc, store, blobs := newService(t)

	_, err := svc.Upload(context.Background(), UploadRequest{Type: models.DocumentTypeInvoice, Name: "Bad", Data: []byte("not a zip")})
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = svc.Upload(context.Background(), UploadRequest{Type: "Bill", Name: "Bad", Data: starter(t)})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Empty(t, store.templates)
	assert.Empty(t, blobs.Keys())
}

func TestSetDefaultIsExclusivePerScope(t *testing.T) {
	svc, _, _ := newService(t)
	biz := uuid.New()
	ctx := context.Background()

	a, err := svc.Upload(ctx, UploadRequest{Owner: &biz, Type: models.DocumentTypeInvoice, Name: "A", Data: starter(t), IsDefault: true})
	require.NoError(t, err)
	b, err := svc.Upload(ctx, UploadRequest{Owner: &biz, Type: models.DocumentTypeInvoice, Name: "B", Data: starter(t)})
	require.NoError(t, err)
	global, err := svc.Upload(ctx, UploadRequest{Type: models.DocumentTypeInvoice, Name: "G", Data: starter(t), IsDefault: true})
	require.NoError(t, err)

	def, err := svc.DefaultTemplate(ctx, biz, models.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, a.Template.ID, def.ID)

	_, err = svc.SetDefault(ctx, &biz, b.Template.ID)
	require.NoError(t, err)

	list, err := svc.List(ctx, biz, models.DocumentTypeInvoice)
	require.NoError(t, err)
	defaults := map[string]bool{}
	for _, tpl := range list {
		defaults[tpl.Name] = tpl.IsDefault
	}
	assert.Equal(t, map[string]bool{"A": false, "B": true, "G": true}, defaults)

	// a business cannot toggle a global template
	_, err = svc.SetDefault(ctx, &biz, global.Template.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	other := uuid.New()
	_, err = svc.SetDefault(ctx, &other, b.Template.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	def, err = svc.DefaultTemplate(ctx, other, models.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, global.Template.ID, def.ID)
}

func TestFailedDefaultUploadKeepsPreviousDefault(t *testing.T) {
	svc, store, _ := newService(t)
	biz := uuid.New()
	ctx := context.Background()

	a, err := svc.Upload(ctx, UploadRequest{Owner: &biz, Type: models.DocumentTypeInvoice, Name: "A", Data: starter(t), IsDefault: true})
	require.NoError(t, err)

	store.createErr = ErrDefaultConflict
	_, err = svc.Upload(ctx, UploadRequest{Owner: &biz, Type: models.DocumentTypeInvoice, Name: "B", Data: starter(t), IsDefault: true})
	require.ErrorIs(t, err, ErrDefaultConflict)
	store.createErr = nil

	list, err := svc.List(ctx, biz, models.DocumentTypeInvoice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.Template.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
}

func TestGetHidesForeignTemplates(t *testing.T) {
	svc, _, _ := newService(t)
	owner := uuid.New()
	res, err := svc.Upload(context.Background(), UploadRequest{Owner: &owner, Type: models.DocumentTypeQuotation, Name: "Private", Data: starter(t)})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), owner, res.Template.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), res.Template.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGeneratePreview(t *testing.T) {
	svc, store, blobs := newService(t)
	biz := uuid.New()
	res, err := svc.Upload(context.Background(), UploadRequest{
		Owner: &biz, Type: models.DocumentTypeInvoice, Name: "Classic", Data: starter(t),
		Theme: &theme.Theme{PrimaryColor: "#0000ff"},
	})
	require.NoError(t, err)

	tpl, err := svc.GeneratePreview(context.Background(), biz, res.Template.ID)
	require.NoError(t, err)
	assert.Equal(t, "mem://doc-previews/templates/"+tpl.ID.String()+"-v1.png", tpl.PreviewURL)

	stored, _ := store.GetTemplate(context.Background(), tpl.ID)
	assert.Equal(t, tpl.PreviewURL, stored.PreviewURL)

	data, err := blobs.Download(context.Background(), "templates/"+tpl.ID.String()+"-v1.png", "doc-previews")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "classic-blue", Slug("  Classic   Blue "))
	assert.Equal(t, "mama-s-shop-2", Slug("Mama's Shop #2"))
	assert.Equal(t, "template", Slug("***"))
}

func TestSampleDocument(t *testing.T) {
	doc := SampleDocument(models.DocumentTypeReceipt, "KES")
	assert.Equal(t, "RCPT-202501-0001", doc.Number)
	assert.Equal(t, "John Doe", doc.CustomerName)
	assert.Len(t, doc.Lines, 2)
}
