package client

import (
	"testing"

	"github.com/helmgart/chatsync/backend/internal/model/chat"
)

func msg(id, content string) chat.Message {
	return chat.Message{ID: id, Content: content, User: "alice", Role: chat.RoleUser}
}

func TestOptimisticEchoIsNotDuplicated(t *testing.T) {
	v := NewView()

	// Local optimistic insert, then the server echoes the same id.
	v.Apply(chat.AddFrame(msg("m1", "hi")))
	v.Apply(chat.AddFrame(msg("m1", "hi")))

	if v.Len() != 1 {
		t.Fatalf("expected one entry after echo, got %d", v.Len())
	}
}

func TestDuplicateDeliveryIsIdempotent(t *testing.T) {
	v := NewView()
	w := NewView()

	v.Apply(chat.AddFrame(msg("m1", "hi")))

	w.Apply(chat.AddFrame(msg("m1", "hi")))
	w.Apply(chat.AddFrame(msg("m1", "hi")))

	got, want := w.Messages(), v.Messages()
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("duplicate delivery diverged: %+v vs %+v", got, want)
	}
}

func TestUpdateReplacesInPlace(t *testing.T) {
	v := NewView()
	v.Apply(chat.AddFrame(msg("m1", "hi")))
	v.Apply(chat.AddFrame(msg("m2", "hey")))

	v.Apply(chat.UpdateFrame(msg("m1", "hi!")))

	msgs := v.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[0].Content != "hi!" {
		t.Fatalf("expected m1 revised first, got %+v", msgs[0])
	}
}

func TestUpdateBeforeAddAppends(t *testing.T) {
	v := NewView()

	// Reconnection race: the revision arrives before any add is visible.
	v.Apply(chat.UpdateFrame(msg("m1", "hi!")))

	got, ok := v.Get("m1")
	if !ok || got.Content != "hi!" {
		t.Fatalf("expected m1 present with revised content, got %+v ok=%v", got, ok)
	}
}

func TestSnapshotReplacesViewVerbatim(t *testing.T) {
	v := NewView()
	v.Apply(chat.AddFrame(msg("optimistic", "never confirmed")))
	v.Apply(chat.AddFrame(msg("m1", "old")))

	v.Apply(chat.AllFrame([]chat.Message{msg("m1", "hi"), msg("m2", "hey")}))

	msgs := v.Messages()
	if len(msgs) != 2 || msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Fatalf("expected snapshot to replace view, got %+v", msgs)
	}
	if _, ok := v.Get("optimistic"); ok {
		t.Fatal("unconfirmed optimistic entry survived the snapshot")
	}

	// Merges after the snapshot target the fresh view, not a stale one.
	v.Apply(chat.UpdateFrame(msg("m2", "hey!")))
	got, _ := v.Get("m2")
	if got.Content != "hey!" {
		t.Fatalf("post-snapshot update lost: %+v", got)
	}
}

func TestLastWriterWinsPerID(t *testing.T) {
	v := NewView()
	v.Apply(chat.AddFrame(msg("m1", "one")))
	v.Apply(chat.UpdateFrame(msg("m1", "two")))
	v.Apply(chat.UpdateFrame(msg("m1", "three")))

	if v.Len() != 1 {
		t.Fatalf("expected a single logical message, got %d", v.Len())
	}
	got, _ := v.Get("m1")
	if got.Content != "three" {
		t.Fatalf("expected last revision, got %q", got.Content)
	}
}
