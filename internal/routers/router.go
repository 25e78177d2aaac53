package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"realtime/internal/api"
)

func New(h *api.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/v1/realtime/healthz", h.Health)

	r.Get("/api/v1/realtime/presence/{entityType}/{entityId}", h.GetEntityPresence)
	r.Post("/api/v1/realtime/notify/{entityType}/{entityId}", h.NotifyEntity)

	r.Get("/ws/collab", h.CollabWS)

	return r
}
