package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckdocs/internal/config"
	docs "github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/locks"
	"github.com/xelth-com/eckdocs/internal/middleware"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/numbering"
	"github.com/xelth-com/eckdocs/internal/render"
	"github.com/xelth-com/eckdocs/internal/render/pdf"
	"github.com/xelth-com/eckdocs/internal/services/businesses"
	"github.com/xelth-com/eckdocs/internal/services/documents"
	"github.com/xelth-com/eckdocs/internal/services/templates"
	"github.com/xelth-com/eckdocs/internal/storage"
	"github.com/xelth-com/eckdocs/internal/theme"
	"github.com/xelth-com/eckdocs/internal/utils"
)

type api struct {
	router *Router
	store  *docStore
	blobs  *flakyBlobs
	biz    uuid.UUID
	token  string
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	DocumentID uuid.UUID       `json:"documentId"`
	Data       json.RawMessage `json:"data"`
}

func newAPI(t *testing.T) *api {
	t.Helper()
	bizID := uuid.New()
	userID := uuid.NewString()
	cfg := &config.Config{JWTSecret: "test-secret"}

	store := &docStore{businesses: map[uuid.UUID]models.Business{bizID: {ID: bizID, Name: "Acme Ltd", Currency: "KES"}}}
	blobs := &flakyBlobs{MemoryStore: storage.NewMemoryStore()}
	tpls := &tplStore{}

	renderer := documents.NewRenderer(blobs, tpls, nil, documents.RendererConfig{
		TemplatesContainer: "doc-templates",
		PreviewsContainer:  "doc-previews",
		Merge:              render.DefaultMergeOptions(),
		PDF:                pdf.Options{PreviewWidth: 300},
	})
	tplSvc := templates.NewService(tpls, blobs, renderer, templates.Config{
		TemplatesContainer: "doc-templates",
		PreviewsContainer:  "doc-previews",
	})
	numbers := numbering.NewAllocator(store, locks.NewKeyedMutex(), numbering.Config{Scope: numbering.ScopeContinuous})
	docSvc := documents.NewService(store, numbers, theme.NewResolver(tplSvc), renderer, blobs, documents.Config{})
	docSvc.SetDefaultTemplates(tplSvc)

	bizSvc := businesses.NewService(&memberStore{members: map[string]uuid.UUID{userID: bizID}}, "KES")

	access, _, err := utils.GenerateTokens(&models.UserAuth{ID: userID, Email: "owner@acme.test"}, cfg)
	require.NoError(t, err)

	return &api{
		router: NewRouter(nil, cfg, Services{Documents: docSvc, Templates: tplSvc, Businesses: bizSvc}),
		store:  store,
		blobs:  blobs,
		biz:    bizID,
		token:  access,
	}
}

func (a *api) do(t *testing.T, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set(middleware.BusinessHeader, a.biz.String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (a *api) postJSON(t *testing.T, path string, v interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return a.do(t, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

const invoiceBody = `{
	"type": "Invoice",
	"customer": {"name": "John Doe", "phone": "+254700000000"},
	"lines": [
		{"name": "Widget", "quantity": "2", "unitPrice": "1000", "taxRate": "0.16"},
		{"name": "Gadget", "quantity": "3", "unitPrice": "500", "taxRate": "0.16"}
	]
}`

func (a *api) createInvoice(t *testing.T) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	return a.do(t, http.MethodPost, "/api/documents", strings.NewReader(invoiceBody), "application/json")
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestDocumentRoutesRequireAuthAndMembership(t *testing.T) {
	a := newAPI(t)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set(middleware.BusinessHeader, uuid.NewString())
	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateDocument(t *testing.T) {
	a := newAPI(t)

	rec, env := a.createInvoice(t)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	var res documents.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, strings.HasPrefix(res.Document.Number, "INV-"))
	assert.True(t, strings.HasSuffix(res.Document.Number, "-0001"))
	assert.True(t, res.Document.Total.Equal(decimal.NewFromInt(4060)), res.Document.Total.String())
	assert.Equal(t, "mem://invoices/"+res.Document.Number+".pdf", res.Artifacts.PdfURL)
	assert.Equal(t, "mem://doc-previews/"+res.Document.Number+".png", res.Artifacts.PreviewURL)

	rec, env = a.do(t, http.MethodGet, "/api/documents/"+res.Document.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc models.Document
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	assert.Equal(t, res.Document.Number, doc.Number)

	rec, env = a.do(t, http.MethodGet, "/api/documents?type=invoice&page=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list documents.ListResult
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.TotalCount)
}

func TestCreateDocumentValidation(t *testing.T) {
	a := newAPI(t)

	rec, env := a.postJSON(t, "/api/documents", map[string]interface{}{"type": "Invoice", "lines": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Empty(t, a.store.docs)

	rec, _ = a.postJSON(t, "/api/documents", map[string]interface{}{"type": "Bill"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/api/documents", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/documents?status=Paid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownDocumentIsNotFound(t *testing.T) {
	a := newAPI(t)

	rec, _ := a.do(t, http.MethodGet, "/api/documents/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/documents/not-an-id", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderFailureIsAccepted(t *testing.T) {
	a := newAPI(t)
	a.blobs.setBroken(true)

	rec, env := a.createInvoice(t)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, docs.ErrRenderFailed.Error(), env.Message)
	require.NotEqual(t, uuid.Nil, env.DocumentID)
	require.Len(t, a.store.docs, 1)
	assert.NotEmpty(t, a.store.docs[0].RenderError)

	a.blobs.setBroken(false)
	rec, env = a.do(t, http.MethodPost, "/api/documents/"+env.DocumentID.String()+"/render", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res documents.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.NotEmpty(t, res.Artifacts.PdfURL)
	assert.Empty(t, res.Document.RenderError)
}

func TestSignDocument(t *testing.T) {
	a := newAPI(t)
	_, env := a.createInvoice(t)
	var created documents.Result
	require.NoError(t, json.Unmarshal(env.Data, &created))
	path := "/api/documents/" + created.Document.ID.String() + "/sign"

	rec, _ := a.postJSON(t, path, documents.SignRequest{SignatureBase64: "bm90IGFuIGltYWdl", SignerName: "Jane"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 120, 40))))
	sig := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	rec, env = a.postJSON(t, path, documents.SignRequest{SignatureBase64: sig, SignerName: "Jane"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var signed documents.Result
	require.NoError(t, json.Unmarshal(env.Data, &signed))
	assert.Equal(t, models.DocumentStatusSigned, signed.Document.Status)
	assert.Equal(t, "Jane", signed.Document.SignedBy)

	rec, _ = a.do(t, http.MethodPut, "/api/documents/"+created.Document.ID.String(), strings.NewReader(`{"notes":"late edit"}`), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func multipartTemplate(t *testing.T, fields map[string]string, file []byte) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", "template.docx")
	require.NoError(t, err)
	_, err = fw.Write(file)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestTemplateUploadAndUse(t *testing.T) {
	a := newAPI(t)
	starter, err := render.StarterTemplate("Classic", theme.Default())
	require.NoError(t, err)

	body, ct := multipartTemplate(t, map[string]string{"name": "Classic", "type": "invoice", "isDefault": "true", "theme": `{"primaryColor":"#123456"}`}, starter)
	rec, env := a.do(t, http.MethodPost, "/api/templates", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var up templates.UploadResult
	require.NoError(t, json.Unmarshal(env.Data, &up))
	assert.Equal(t, fmt.Sprintf("%s/invoice/classic-v1.docx", a.biz), up.Template.BlobPath)
	assert.True(t, up.Template.IsDefault)

	rec, env = a.do(t, http.MethodGet, "/api/templates?type=Invoice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Template
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	rec, _ = a.do(t, http.MethodPost, "/api/templates/"+up.Template.ID.String()+"/preview", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	templateID := up.Template.ID.String()
	rec, env = a.postJSON(t, "/api/documents", map[string]interface{}{
		"type":       "Invoice",
		"templateId": templateID,
		"lines":      []map[string]string{{"name": "Widget", "quantity": "1", "unitPrice": "100", "taxRate": "0"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res documents.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Artifacts.FromTemplate)
}

func TestTemplateUploadRejectsGarbage(t *testing.T) {
	a := newAPI(t)
	body, ct := multipartTemplate(t, map[string]string{"name": "Bad", "type": "Invoice"}, []byte("plain text"))
	rec, _ := a.do(t, http.MethodPost, "/api/templates", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/templates/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{docs.ErrNoLines, http.StatusBadRequest},
		{fmt.Errorf("%w: line 1", docs.ErrInvalidLine), http.StatusBadRequest},
		{docs.ErrInvalidCurrency, http.StatusBadRequest},
		{documents.ErrInvalidSignature, http.StatusBadRequest},
		{docs.ErrForbidden, http.StatusForbidden},
		{theme.ErrTemplateNotPermitted, http.StatusForbidden},
		{docs.ErrNotFound, http.StatusNotFound},
		{docs.ErrNotEditable, http.StatusConflict},
		{fmt.Errorf("save document: %w", numbering.ErrNumberConflict), http.StatusConflict},
		{docs.ErrSignatureUnavailable, http.StatusUnprocessableEntity},
		{documents.ErrVoiceUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, documentErrorStatus(tt.err), tt.err.Error())
	}
}

func TestTemplateErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{templates.ErrInvalidTemplate, http.StatusBadRequest},
		{templates.ErrInvalidRequest, http.StatusBadRequest},
		{templates.ErrNotOwner, http.StatusForbidden},
		{templates.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("set default: %w", templates.ErrDefaultConflict), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, templateErrorStatus(tt.err), tt.err.Error())
	}
}

func TestParseDate(t *testing.T) {
	to, err := parseDate("2025-01-31", true)
	require.NoError(t, err)
	assert.Equal(t, 31, to.Day())
	assert.Equal(t, 23, to.Hour())

	from, err := parseDate("2025-01-01T08:00:00Z", false)
	require.NoError(t, err)
	assert.Equal(t, 8, from.Hour())

	none, err := parseDate("", false)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = parseDate("31/01/2025", false)
	assert.Error(t, err)
}
