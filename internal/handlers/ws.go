package handlers

import (
	"net/http"

	"github.com/xelth-com/eckdocs/internal/middleware"
	"github.com/xelth-com/eckdocs/internal/websocket"
)

// serveWs subscribes an authenticated member to their business's document events
func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	if r.svc.Hub == nil {
		respondError(w, http.StatusServiceUnavailable, "Events are not enabled")
		return
	}
	biz, _ := middleware.BusinessID(req.Context())
	websocket.ServeWs(r.svc.Hub, w, req, biz, middleware.UserID(req.Context()))
}
