package hub

import (
	"sync"

	"github.com/helmgart/chatsync/backend/pkg/log"
)

// Conn is one registered participant connection as the hub sees it.
type Conn interface {
	// Enqueue hands the frame to the connection's outbound queue.
	// Frames enqueued in order are delivered in order.
	Enqueue(data []byte) error
	// Close tears the connection down. Safe to call more than once.
	Close()
}

// Hub tracks which live connections belong to which room and fans
// frames out to them. Registration and broadcast for the same room
// never observe each other half-applied.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

// Register adds the connection to the room's fan-out set.
func (h *Hub) Register(roomID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[Conn]struct{})
		h.rooms[roomID] = members
	}
	members[c] = struct{}{}
}

// Unregister removes the connection from the room's fan-out set. The
// connection itself is left to its owner to close.
func (h *Hub) Unregister(roomID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Members returns the room's currently registered connections.
func (h *Hub) Members(roomID string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[roomID]
	out := make([]Conn, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// Broadcast delivers the already-serialized frame to every member of
// the room except exclude, if given. A connection that refuses the
// frame is dropped from the room and closed; delivery to the remaining
// members continues.
func (h *Hub) Broadcast(roomID string, data []byte, exclude Conn) {
	var broken []Conn

	h.mu.RLock()
	for c := range h.rooms[roomID] {
		if c == exclude {
			continue
		}
		if err := c.Enqueue(data); err != nil {
			broken = append(broken, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range broken {
		h.Unregister(roomID, c)
		c.Close()
		log.L().Warn().Str("room", roomID).Msg("dropped broken connection during broadcast")
	}
}
