package entities

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Conversation struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	Messages  []Message `json:"messages" bson:"messages"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func NewConversation(title string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.New().String(),
		Title:     title,
		Messages:  make([]Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds messages to the end of the history and advances UpdatedAt.
// The history is append-only: existing messages are never reordered or
// mutated in place. Nil messages are skipped.
func (c *Conversation) Append(messages ...*Message) {
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		c.Messages = append(c.Messages, *msg)
	}
	c.UpdatedAt = time.Now()
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (c *Conversation) Clone() *Conversation {
	messages := make([]Message, len(c.Messages))
	copy(messages, c.Messages)
	return &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		Messages:  messages,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ConversationSummary is the listing view of a conversation.
type ConversationSummary struct {
	ID           string    `json:"conversation_id" bson:"_id"`
	Title        string    `json:"title,omitempty" bson:"title,omitempty"`
	MessageCount int       `json:"message_count" bson:"message_count"`
	LastMessage  string    `json:"last_message" bson:"last_message"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

const previewLength = 50

func (c *Conversation) Summary() *ConversationSummary {
	summary := &ConversationSummary{
		ID:           c.ID,
		Title:        c.Title,
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if len(c.Messages) > 0 {
		summary.LastMessage = truncateRunes(c.Messages[len(c.Messages)-1].Content, previewLength)
	}
	return summary
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
