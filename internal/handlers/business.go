package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	docs "github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/middleware"
	"github.com/xelth-com/eckdocs/internal/services/businesses"
)

func (r *Router) listBusinesses(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.Businesses.List(req.Context(), middleware.UserID(req.Context()))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list businesses")
		respondError(w, http.StatusInternalServerError, "Failed to fetch businesses")
		return
	}
	respondSuccess(w, http.StatusOK, "", list)
}

func (r *Router) createBusiness(w http.ResponseWriter, req *http.Request) {
	var body businesses.CreateRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	b, err := r.svc.Businesses.Create(req.Context(), middleware.UserID(req.Context()), body)
	switch {
	case errors.Is(err, businesses.ErrNameRequired), errors.Is(err, docs.ErrInvalidCurrency):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("Failed to create business")
		respondError(w, http.StatusInternalServerError, "Failed to create business")
		return
	}
	respondSuccess(w, http.StatusCreated, "Business created", b)
}
