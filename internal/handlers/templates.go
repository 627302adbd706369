package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/xelth-com/eckdocs/internal/middleware"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/services/templates"
	"github.com/xelth-com/eckdocs/internal/theme"
)

func templateErrorStatus(err error) int {
	switch {
	case errors.Is(err, templates.ErrInvalidTemplate), errors.Is(err, templates.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, templates.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, templates.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, templates.ErrDefaultConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondTemplateError(w http.ResponseWriter, err error) {
	status := templateErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("❌ Template request failed")
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

func (r *Router) listTemplates(w http.ResponseWriter, req *http.Request) {
	biz, _ := middleware.BusinessID(req.Context())
	var docType models.DocumentType
	if v := req.URL.Query().Get("type"); v != "" {
		t, ok := models.ParseDocumentType(v)
		if !ok {
			respondError(w, http.StatusBadRequest, "unknown document type")
			return
		}
		docType = t
	}
	list, err := r.svc.Templates.List(req.Context(), biz, docType)
	if err != nil {
		respondTemplateError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", list)
}

func (r *Router) getTemplate(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	biz, _ := middleware.BusinessID(req.Context())
	tpl, err := r.svc.Templates.Get(req.Context(), biz, id)
	if err != nil {
		respondTemplateError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", tpl)
}

// uploadTemplate accepts multipart fields file, name, type, isDefault and an optional theme JSON
func (r *Router) uploadTemplate(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxUploadSize)
	if err := req.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}

	file, _, err := req.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	docType, ok := models.ParseDocumentType(req.FormValue("type"))
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown document type")
		return
	}
	isDefault, _ := strconv.ParseBool(req.FormValue("isDefault"))

	var th *theme.Theme
	if raw := req.FormValue("theme"); raw != "" {
		th = &theme.Theme{}
		if err := json.Unmarshal([]byte(raw), th); err != nil {
			respondError(w, http.StatusBadRequest, "theme must be JSON")
			return
		}
	}

	biz, _ := middleware.BusinessID(req.Context())
	res, err := r.svc.Templates.Upload(req.Context(), templates.UploadRequest{
		Owner:     &biz,
		Type:      docType,
		Name:      req.FormValue("name"),
		Data:      data,
		Theme:     th,
		IsDefault: isDefault,
	})
	if err != nil {
		respondTemplateError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "Template uploaded", res)
}

func (r *Router) setDefaultTemplate(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	biz, _ := middleware.BusinessID(req.Context())
	tpl, err := r.svc.Templates.SetDefault(req.Context(), &biz, id)
	if err != nil {
		respondTemplateError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Template set as default", tpl)
}

func (r *Router) generateTemplatePreview(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	biz, _ := middleware.BusinessID(req.Context())
	tpl, err := r.svc.Templates.GeneratePreview(req.Context(), biz, id)
	if err != nil {
		respondTemplateError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Preview generated", tpl)
}
