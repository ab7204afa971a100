package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the conversational function of a message author.
type Role string

// Conversation roles used in a group exchange.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Message is one contribution in a group conversation. After being appended
// to a History it should be treated as immutable.
type Message struct {
	ID        string    `json:"id"`
	Speaker   string    `json:"speaker"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewID generates a new unique identifier for messages and exchanges.
func NewID() string { return uuid.NewString() }

// NewUserMessage creates a user-authored message seeding or continuing an exchange.
func NewUserMessage(content string) Message {
	return Message{
		ID:        NewID(),
		Speaker:   "user",
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewAgentMessage creates an assistant message authored by the named agent.
func NewAgentMessage(speaker, content string) Message {
	return Message{
		ID:        NewID(),
		Speaker:   speaker,
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolMessage records a tool result attributed to the named tool.
func NewToolMessage(speaker, content string) Message {
	return Message{
		ID:        NewID(),
		Speaker:   speaker,
		Role:      RoleTool,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
