package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	docs "github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/middleware"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/numbering"
	"github.com/xelth-com/eckdocs/internal/services/documents"
	"github.com/xelth-com/eckdocs/internal/theme"
)

// actor builds the acting user and business from the request context
func actor(req *http.Request) documents.Actor {
	biz, _ := middleware.BusinessID(req.Context())
	return documents.Actor{UserID: middleware.UserID(req.Context()), BusinessID: biz}
}

func pathID(w http.ResponseWriter, req *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// documentErrorStatus maps service errors to HTTP status codes
func documentErrorStatus(err error) int {
	switch {
	case errors.Is(err, docs.ErrNoLines),
		errors.Is(err, docs.ErrInvalidType),
		errors.Is(err, docs.ErrInvalidLine),
		errors.Is(err, docs.ErrInvalidCurrency),
		errors.Is(err, documents.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, docs.ErrForbidden), errors.Is(err, theme.ErrTemplateNotPermitted):
		return http.StatusForbidden
	case errors.Is(err, docs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, docs.ErrNotEditable), errors.Is(err, numbering.ErrNumberConflict):
		return http.StatusConflict
	case errors.Is(err, docs.ErrSignatureUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, documents.ErrVoiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondDocumentResult writes a workflow outcome. A saved document whose files
// could not be generated is 202 with its id so the client can retry the render.
func respondDocumentResult(w http.ResponseWriter, status int, message string, res *documents.Result, err error) {
	var failed *documents.RenderFailedError
	if errors.As(err, &failed) {
		body := map[string]interface{}{
			"success":    false,
			"message":    docs.ErrRenderFailed.Error(),
			"documentId": failed.DocumentID,
			"number":     failed.Number,
		}
		if res != nil {
			body["data"] = res
		}
		respondJSON(w, http.StatusAccepted, body)
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, status, message, res)
}

func respondServiceError(w http.ResponseWriter, err error) {
	status := documentErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("❌ Document request failed")
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

func (r *Router) createDocument(w http.ResponseWriter, req *http.Request) {
	var body documents.CreateRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	res, err := r.svc.Documents.CreateManual(req.Context(), actor(req), body)
	respondDocumentResult(w, http.StatusCreated, "Document created", res, err)
}

func (r *Router) createVoiceDocument(w http.ResponseWriter, req *http.Request) {
	var body documents.VoiceRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	res, err := r.svc.Documents.CreateFromVoice(req.Context(), actor(req), body)
	respondDocumentResult(w, http.StatusCreated, "Document created from voice", res, err)
}

func (r *Router) getDocument(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	doc, err := r.svc.Documents.Get(req.Context(), actor(req), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", doc)
}

func (r *Router) listDocuments(w http.ResponseWriter, req *http.Request) {
	f, err := parseListFilter(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := r.svc.Documents.List(req.Context(), actor(req), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", res)
}

func (r *Router) updateDocument(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	var body documents.UpdateRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	doc, err := r.svc.Documents.Update(req.Context(), actor(req), id, body)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Document updated", doc)
}

func (r *Router) signDocument(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	var body documents.SignRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	res, err := r.svc.Documents.Sign(req.Context(), actor(req), id, body)
	respondDocumentResult(w, http.StatusOK, "Document signed", res, err)
}

func (r *Router) rerenderDocument(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	res, err := r.svc.Documents.Rerender(req.Context(), actor(req), id)
	respondDocumentResult(w, http.StatusOK, "Document rendered", res, err)
}

// parseListFilter reads type, status, from, to, search, page and pageSize
func parseListFilter(req *http.Request) (documents.ListFilter, error) {
	q := req.URL.Query()
	var f documents.ListFilter

	if v := q.Get("type"); v != "" {
		t, ok := models.ParseDocumentType(v)
		if !ok {
			return f, errors.New("unknown document type")
		}
		f.Type = t
	}
	if v := q.Get("status"); v != "" {
		s, ok := models.ParseDocumentStatus(v)
		if !ok {
			return f, errors.New("unknown document status")
		}
		f.Status = s
	}
	var err error
	if f.From, err = parseDate(q.Get("from"), false); err != nil {
		return f, errors.New("from must be YYYY-MM-DD or RFC 3339")
	}
	if f.To, err = parseDate(q.Get("to"), true); err != nil {
		return f, errors.New("to must be YYYY-MM-DD or RFC 3339")
	}
	f.Search = q.Get("search")
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("pageSize"))
	return f, nil
}

// parseDate accepts a day or a timestamp; a day used as an upper bound covers the whole day
func parseDate(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
