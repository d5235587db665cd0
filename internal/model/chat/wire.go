package chat

import (
	"encoding/json"
	"errors"
)

// Frame types carried over the connection.
const (
	FrameAdd    = "add"
	FrameUpdate = "update"
	FrameAll    = "all"
)

var ErrMalformedFrame = errors.New("malformed wire frame")

// Frame is the envelope exchanged over a room connection: exactly one
// of Message (add/update) or Messages (all) is populated, selected by
// Type.
type Frame struct {
	Type     string    `json:"type"`
	Message  *Message  `json:"message,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

// MarshalJSON keeps the wire shape per frame kind: snapshots always
// carry a messages array, even when empty.
func (f Frame) MarshalJSON() ([]byte, error) {
	if f.Type == FrameAll {
		msgs := f.Messages
		if msgs == nil {
			msgs = []Message{}
		}
		return json.Marshal(struct {
			Type     string    `json:"type"`
			Messages []Message `json:"messages"`
		}{f.Type, msgs})
	}
	return json.Marshal(struct {
		Type    string   `json:"type"`
		Message *Message `json:"message,omitempty"`
	}{f.Type, f.Message})
}

// AddFrame introduces a new logical message.
func AddFrame(m Message) Frame {
	return Frame{Type: FrameAdd, Message: &m}
}

// UpdateFrame revises the logical message with the same ID.
func UpdateFrame(m Message) Frame {
	return Frame{Type: FrameUpdate, Message: &m}
}

// AllFrame is the full-history snapshot sent once per connection,
// immediately after it is established.
func AllFrame(msgs []Message) Frame {
	if msgs == nil {
		msgs = []Message{}
	}
	return Frame{Type: FrameAll, Messages: msgs}
}

// Encode serializes the frame for the wire.
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// DecodeFrame parses a wire frame of any type. Payloads that do not
// match the envelope shape come back as ErrMalformedFrame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, ErrMalformedFrame
	}
	switch f.Type {
	case FrameAdd, FrameUpdate:
		if f.Message == nil || !f.Message.Valid() {
			return Frame{}, ErrMalformedFrame
		}
	case FrameAll:
		if f.Messages == nil {
			f.Messages = []Message{}
		}
	default:
		return Frame{}, ErrMalformedFrame
	}
	return f, nil
}

// DecodeInbound parses a frame arriving from a participant. Only
// add/update are legal client-to-server types; snapshots flow the
// other way.
func DecodeInbound(data []byte) (Frame, error) {
	f, err := DecodeFrame(data)
	if err != nil {
		return Frame{}, err
	}
	if f.Type == FrameAll {
		return Frame{}, ErrMalformedFrame
	}
	return f, nil
}
