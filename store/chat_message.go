package store

// ChatMessageRole is the author of a logged chat message.
type ChatMessageRole string

const (
	ChatMessageRoleUser      ChatMessageRole = "user"
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
)

// ChatMessage is one row of the permanent, append-only chat log. Unlike the
// conversation window this log is authoritative and never truncated.
type ChatMessage struct {
	ID        int32
	CreatorID int32
	Role      ChatMessageRole
	Content   string
	CreatedTs int64
}

type FindChatMessage struct {
	CreatorID *int32
	// Limit bounds the result count; zero means unbounded.
	Limit int
}

type DeleteChatMessage struct {
	CreatorID int32
}
