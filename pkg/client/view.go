package client

import "github.com/helmgart/chatsync/backend/internal/model/chat"

// View is one participant's ordered copy of a room log. Every merge
// runs against the view as it is at call time, so a revision landing
// between an optimistic insert and its broadcast echo is never lost.
type View struct {
	order []chat.Message
	index map[string]int
}

func NewView() *View {
	return &View{index: make(map[string]int)}
}

// Apply merges one frame into the view. An add whose id is already
// present (the echo of an optimistic insert, or a duplicate delivery)
// replaces that entry in place; an update that outran its add appends.
// A snapshot replaces the view verbatim, dropping optimistic entries
// the server never confirmed.
func (v *View) Apply(f chat.Frame) {
	switch f.Type {
	case chat.FrameAdd, chat.FrameUpdate:
		v.merge(*f.Message)
	case chat.FrameAll:
		v.order = append([]chat.Message(nil), f.Messages...)
		v.index = make(map[string]int, len(v.order))
		for i, m := range v.order {
			v.index[m.ID] = i
		}
	}
}

func (v *View) merge(m chat.Message) {
	if i, ok := v.index[m.ID]; ok {
		v.order[i] = m
		return
	}
	v.index[m.ID] = len(v.order)
	v.order = append(v.order, m)
}

// Messages returns the view in insertion order.
func (v *View) Messages() []chat.Message {
	out := make([]chat.Message, len(v.order))
	copy(out, v.order)
	return out
}

// Get returns the current revision of the message with the given id.
func (v *View) Get(id string) (chat.Message, bool) {
	i, ok := v.index[id]
	if !ok {
		return chat.Message{}, false
	}
	return v.order[i], true
}

// Len reports the number of visible logical messages.
func (v *View) Len() int {
	return len(v.order)
}
