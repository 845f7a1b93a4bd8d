package interfaces

import (
	"context"

	"github.com/kodechat/chatbot/internal/domain/entities"
)

// ConversationStore is the durable document store for conversations,
// keyed by conversation id. Implementations must resolve ids without a
// full scan and make every successful write durable before returning.
// Conversations are written as whole documents so readers never see a
// truncated message tail.
type ConversationStore interface {
	GetConversation(ctx context.Context, id string) (*entities.Conversation, error)
	UpsertConversation(ctx context.Context, conversation *entities.Conversation) error
	// ListSummaries returns summaries ordered most-recently-updated
	// first. An empty cursor starts from the newest conversation; the
	// returned cursor resumes the listing, or is empty when exhausted.
	ListSummaries(ctx context.Context, cursor string, limit int) ([]*entities.ConversationSummary, string, error)
	DeleteConversation(ctx context.Context, id string) error
}
