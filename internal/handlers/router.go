package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/xelth-com/eckdocs/internal/buildinfo"
	"github.com/xelth-com/eckdocs/internal/config"
	"github.com/xelth-com/eckdocs/internal/database"
	"github.com/xelth-com/eckdocs/internal/middleware"
	"github.com/xelth-com/eckdocs/internal/services/businesses"
	"github.com/xelth-com/eckdocs/internal/services/documents"
	"github.com/xelth-com/eckdocs/internal/services/templates"
	"github.com/xelth-com/eckdocs/internal/websocket"
)

// maxUploadSize bounds multipart template uploads
const maxUploadSize = 10 << 20

// Services are the workflows the API exposes
type Services struct {
	Documents  *documents.Service
	Templates  *templates.Service
	Businesses *businesses.Service
	Hub        *websocket.Hub
	// FilesDir is served under /files when artifacts are stored on local disk
	FilesDir string
}

// Router wraps the mux router and its dependencies
type Router struct {
	*mux.Router
	db  *database.DB
	cfg *config.Config
	svc Services
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, svc Services) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		db:     db,
		cfg:    cfg,
		svc:    svc,
	}

	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")

	authenticated := middleware.AuthMiddleware(cfg.JWTSecret)
	inBusiness := middleware.BusinessMiddleware(svc.Businesses)

	// Businesses are listed and created without a business context
	biz := r.PathPrefix("/api/businesses").Subrouter()
	biz.Use(authenticated)
	biz.HandleFunc("", r.listBusinesses).Methods("GET")
	biz.HandleFunc("", r.createBusiness).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authenticated, inBusiness)

	docs := api.PathPrefix("/documents").Subrouter()
	docs.HandleFunc("", r.listDocuments).Methods("GET")
	docs.HandleFunc("", r.createDocument).Methods("POST")
	docs.HandleFunc("/voice", r.createVoiceDocument).Methods("POST")
	docs.HandleFunc("/{id}", r.getDocument).Methods("GET")
	docs.HandleFunc("/{id}", r.updateDocument).Methods("PUT")
	docs.HandleFunc("/{id}/sign", r.signDocument).Methods("POST")
	docs.HandleFunc("/{id}/render", r.rerenderDocument).Methods("POST")

	tpl := api.PathPrefix("/templates").Subrouter()
	tpl.HandleFunc("", r.listTemplates).Methods("GET")
	tpl.HandleFunc("", r.uploadTemplate).Methods("POST")
	tpl.HandleFunc("/{id}", r.getTemplate).Methods("GET")
	tpl.HandleFunc("/{id}/default", r.setDefaultTemplate).Methods("POST")
	tpl.HandleFunc("/{id}/preview", r.generateTemplatePreview).Methods("POST")

	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authenticated, inBusiness)
	ws.HandleFunc("", r.serveWs).Methods("GET")

	if svc.FilesDir != "" {
		r.PathPrefix("/files/").Handler(http.StripPrefix("/files/", http.FileServer(http.Dir(svc.FilesDir))))
	}

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	status := "ok"
	if r.db != nil {
		if sqlDB, err := r.db.DB.DB(); err != nil || sqlDB.PingContext(req.Context()) != nil {
			status = "degraded"
		}
	}
	body := buildinfo.Fields()
	body["status"] = status
	respondJSON(w, http.StatusOK, body)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

// respondSuccess wraps data in the success envelope
func respondSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	body := map[string]interface{}{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	respondJSON(w, status, body)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// decodeJSON reads a JSON body into v
func decodeJSON(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
