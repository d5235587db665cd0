package chat

// Role classifies the originator of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Message is one logical chat entry. The ID is assigned by the author
// at creation time and stays stable across revisions; a later write
// carrying the same ID supersedes the earlier content.
type Message struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	User    string `json:"user"`
	Role    Role   `json:"role"`
}

// Valid reports whether the message carries the fields every revision
// must have. Content may be empty; Role is opaque to the log.
func (m Message) Valid() bool {
	return m.ID != "" && m.User != ""
}
