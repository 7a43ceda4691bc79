package chat

import "github.com/google/uuid"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation.
type Turn struct {
	ID      string
	Role    Role
	Content string
}

// Transcript is the append-only conversation history. Turns are never
// reordered or deleted, and always hold the complete final text
// regardless of how the view reveals it.
type Transcript struct {
	turns []Turn
}

func (t *Transcript) Append(role Role, content string) Turn {
	turn := Turn{ID: uuid.NewString(), Role: role, Content: content}
	t.turns = append(t.turns, turn)
	return turn
}

func (t *Transcript) Turns() []Turn { return t.turns }

func (t *Transcript) Len() int { return len(t.turns) }
