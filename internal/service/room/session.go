package room

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/helmgart/chatsync/backend/internal/hub"
	"github.com/helmgart/chatsync/backend/internal/model/chat"
	"github.com/helmgart/chatsync/backend/internal/store"
	"github.com/helmgart/chatsync/backend/pkg/log"
)

type state int

const (
	cold state = iota
	hydrating
	active
)

// Session owns one room's lifecycle: it hydrates the log on first
// access, snapshots the full history to every new connection, and for
// every inbound frame persists then fans out. All mutating operations
// for the room run under one exclusive section; unrelated rooms never
// contend.
type Session struct {
	roomID string
	store  *store.MessageStore
	hub    *hub.Hub
	logger zerolog.Logger

	mu sync.Mutex
	st state
}

func newSession(roomID string, st *store.MessageStore, h *hub.Hub) *Session {
	return &Session{
		roomID: roomID,
		store:  st,
		hub:    h,
		logger: log.L().With().Str("room", roomID).Logger(),
	}
}

// Connect registers the connection with the room, hydrating the log
// first if this is the room's first access, and sends the connection
// its full-history snapshot. Registration and snapshot happen inside
// the room's critical section so no broadcast can slip between them.
func (s *Session) Connect(ctx context.Context, c hub.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hydrateLocked(ctx)

	s.hub.Register(s.roomID, c)

	data, err := chat.AllFrame(s.store.Snapshot()).Encode()
	if err != nil {
		s.hub.Unregister(s.roomID, c)
		return err
	}
	if err := c.Enqueue(data); err != nil {
		s.hub.Unregister(s.roomID, c)
		return err
	}

	s.logger.Info().Msg("participant connected")
	return nil
}

// Disconnect removes the connection from the room's fan-out set.
// In-flight hydration or persistence is unaffected; neither is
// connection-scoped.
func (s *Session) Disconnect(c hub.Conn) {
	s.hub.Unregister(s.roomID, c)
	c.Close()
	s.logger.Info().Msg("participant disconnected")
}

// Ingest handles one inbound frame: validate the shape, persist the
// message, then broadcast the same bytes to every member of the room,
// sender included. Malformed frames are dropped without mutating any
// state; a persistence failure is logged but never blocks the
// broadcast.
func (s *Session) Ingest(ctx context.Context, raw []byte) {
	frame, err := chat.DecodeInbound(raw)
	if err != nil {
		s.logger.Debug().Msg("ignoring malformed frame")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Upsert(ctx, *frame.Message); err != nil {
		if errors.Is(err, store.ErrStorageUnavailable) {
			s.logger.Error().Err(err).Str("message", frame.Message.ID).Msg("message not persisted")
		} else {
			s.logger.Error().Err(err).Str("message", frame.Message.ID).Msg("upsert failed")
		}
	}

	s.hub.Broadcast(s.roomID, raw, nil)
}

// Len reports the current size of the room log.
func (s *Session) Len() int {
	return s.store.Len()
}

// hydrateLocked runs the cold -> hydrating -> active transition. A
// storage failure degrades the room to an empty log rather than
// refusing connections; hydration is never retried within a process
// lifetime.
func (s *Session) hydrateLocked(ctx context.Context) {
	if s.st == active {
		return
	}
	s.st = hydrating

	if err := s.store.Hydrate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("hydration failed, starting with empty log")
	} else {
		s.logger.Info().Int("messages", s.store.Len()).Msg("room hydrated")
	}

	s.st = active
}
