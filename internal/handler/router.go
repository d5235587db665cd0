package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/helmgart/chatsync/backend/internal/handler/ws"
	middlewarePkg "github.com/helmgart/chatsync/backend/internal/middleware"
	"github.com/helmgart/chatsync/backend/internal/service/room"
)

// NewRouter wires HTTP routes to the room core.
func NewRouter(rooms *room.Manager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	wsHandler := ws.New(rooms)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handleHealth)
		wsHandler.RegisterRoutes(api)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
