package ws

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/helmgart/chatsync/backend/internal/hub"
	"github.com/helmgart/chatsync/backend/internal/service/room"
	"github.com/helmgart/chatsync/backend/pkg/log"
)

// Handler upgrades HTTP requests to websocket connections bound to a
// single room for their lifetime.
type Handler struct {
	rooms    *room.Manager
	upgrader websocket.Upgrader
}

func New(rooms *room.Manager) *Handler {
	return &Handler{
		rooms: rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{roomID}", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		http.Error(w, "roomID is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(conn)
	sess := h.rooms.Room(roomID)

	go client.WritePump()

	if err := sess.Connect(r.Context(), client); err != nil {
		log.L().Warn().Err(err).Str("room", roomID).Msg("connection rejected")
		client.Close()
		return
	}

	// The request context ends with this handler; inbound frames get a
	// fresh one since persistence is room-scoped, not connection-scoped.
	client.ReadPump(func(data []byte) {
		sess.Ingest(context.Background(), data)
	})
	sess.Disconnect(client)
}
