package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message roles. A conversation only ever contains these three.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	ID        string    `json:"id" bson:"id"`
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

func NewMessage(role, content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Empty reports whether the message content is empty or whitespace only.
func (m *Message) Empty() bool {
	return strings.TrimSpace(m.Content) == ""
}
