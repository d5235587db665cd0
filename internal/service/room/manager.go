package room

import (
	"sync"

	"gorm.io/gorm"

	"github.com/helmgart/chatsync/backend/internal/hub"
	"github.com/helmgart/chatsync/backend/internal/store"
)

// Manager hands out the per-room singleton sessions. Sessions are
// created lazily on first access and live for the rest of the process;
// the singleton guarantee is what keeps hydration at-most-once per
// room.
type Manager struct {
	db  *gorm.DB // nil runs every room without durable storage
	hub *hub.Hub

	mu    sync.Mutex
	rooms map[string]*Session
}

func NewManager(db *gorm.DB, h *hub.Hub) *Manager {
	return &Manager{
		db:    db,
		hub:   h,
		rooms: make(map[string]*Session),
	}
}

// Room returns the session for roomID, creating it on first access.
func (m *Manager) Room(roomID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.rooms[roomID]; ok {
		return s
	}
	s := newSession(roomID, store.New(m.db, roomID), m.hub)
	m.rooms[roomID] = s
	return s
}
