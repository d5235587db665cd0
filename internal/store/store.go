package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helmgart/chatsync/backend/internal/model/chat"
)

var ErrStorageUnavailable = errors.New("storage unavailable")

// Record is the durable row backing one logical message in one room.
// Content is stored as a self-contained JSON value, never spliced into
// query text; every field reaches the database as a bind parameter.
type Record struct {
	RoomID   string `gorm:"primaryKey;column:room_id;size:128"`
	ID       string `gorm:"primaryKey;column:id;size:64"`
	Position int    `gorm:"column:position"`
	Content  string `gorm:"column:content"`
	User     string `gorm:"column:user"`
	Role     string `gorm:"column:role"`
}

func (Record) TableName() string { return "messages" }

// MessageStore is the authoritative ordered log for one room plus its
// durable mirror. The in-memory log is always fresh; the mirror is
// best-effort and only ever read back at hydration.
type MessageStore struct {
	roomID string
	db     *gorm.DB // nil when the service runs without durable storage

	mu    sync.RWMutex
	log   []chat.Message
	index map[string]int
}

// New creates the store for one room. Nothing is loaded until Hydrate.
func New(db *gorm.DB, roomID string) *MessageStore {
	return &MessageStore{
		roomID: roomID,
		db:     db,
		index:  make(map[string]int),
	}
}

// Hydrate loads the room's persisted history into the in-memory log,
// ordered by original insertion. Called at most once per room
// lifetime, before any Upsert.
func (s *MessageStore) Hydrate(ctx context.Context) error {
	if s.db == nil {
		return ErrStorageUnavailable
	}

	var rows []Record
	err := s.db.WithContext(ctx).
		Where("room_id = ?", s.roomID).
		Order("position asc").
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = make([]chat.Message, 0, len(rows))
	s.index = make(map[string]int, len(rows))
	for _, r := range rows {
		m := chat.Message{
			ID:      r.ID,
			Content: decodeContent(r.Content),
			User:    r.User,
			Role:    chat.Role(r.Role),
		}
		s.index[m.ID] = len(s.log)
		s.log = append(s.log, m)
	}
	return nil
}

// Upsert applies the message to the in-memory log atomically, then
// mirrors it to the backing store keyed by (room, id). A new id
// appends; an existing id is replaced in place, position unchanged.
// A storage failure leaves the log updated and is returned for the
// caller to report.
func (s *MessageStore) Upsert(ctx context.Context, m chat.Message) error {
	s.mu.Lock()
	pos, ok := s.index[m.ID]
	if ok {
		s.log[pos] = m
	} else {
		pos = len(s.log)
		s.index[m.ID] = pos
		s.log = append(s.log, m)
	}
	s.mu.Unlock()

	if s.db == nil {
		return ErrStorageUnavailable
	}

	rec := Record{
		RoomID:   s.roomID,
		ID:       m.ID,
		Position: pos,
		Content:  encodeContent(m.Content),
		User:     m.User,
		Role:     string(m.Role),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "user", "role"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Snapshot returns a copy of the log in insertion order.
func (s *MessageStore) Snapshot() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Message, len(s.log))
	copy(out, s.log)
	return out
}

// Len reports the number of logical messages in the log.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}

func encodeContent(content string) string {
	data, err := json.Marshal(content)
	if err != nil {
		return content
	}
	return string(data)
}

func decodeContent(stored string) string {
	var content string
	if err := json.Unmarshal([]byte(stored), &content); err != nil {
		// Row predates JSON-encoded content; keep it verbatim.
		return stored
	}
	return content
}
