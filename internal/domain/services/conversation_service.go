package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/kodechat/chatbot/internal/domain/entities"
	"github.com/kodechat/chatbot/internal/domain/errs"
	"github.com/kodechat/chatbot/internal/domain/interfaces"
)

// ConversationService is the typed, invariant-preserving facade over
// the conversation store.
type ConversationService interface {
	CreateConversation(ctx context.Context, title string) (*entities.Conversation, error)
	LoadOrCreate(ctx context.Context, id, title string) (*entities.Conversation, error)
	GetConversation(ctx context.Context, id string) (*entities.Conversation, error)
	AppendTurn(ctx context.Context, id string, userMessage, assistantMessage *entities.Message) (*entities.Conversation, error)
	ListConversations(ctx context.Context, cursor string, limit int) ([]*entities.ConversationSummary, string, error)
	DeleteConversation(ctx context.Context, id string) error
}

type conversationService struct {
	store  interfaces.ConversationStore
	logger *zap.Logger
}

func NewConversationService(store interfaces.ConversationStore, logger *zap.Logger) *conversationService {
	return &conversationService{
		store:  store,
		logger: logger,
	}
}

func (s *conversationService) CreateConversation(ctx context.Context, title string) (*entities.Conversation, error) {
	conversation := entities.NewConversation(title)
	if err := s.store.UpsertConversation(ctx, conversation); err != nil {
		return nil, err
	}

	s.logger.Info("Created conversation", zap.String("conversation_id", conversation.ID))
	return conversation, nil
}

// LoadOrCreate creates a fresh conversation when no id is supplied.
// A caller-supplied id that does not exist is reported as not found,
// never silently fabricated.
func (s *conversationService) LoadOrCreate(ctx context.Context, id, title string) (*entities.Conversation, error) {
	if id == "" {
		return s.CreateConversation(ctx, title)
	}

	return s.store.GetConversation(ctx, id)
}

func (s *conversationService) GetConversation(ctx context.Context, id string) (*entities.Conversation, error) {
	if id == "" {
		return nil, errs.ValidationErrorf("conversation ID is required")
	}

	return s.store.GetConversation(ctx, id)
}

// AppendTurn appends the user message and, when present, the assistant
// message to the conversation, then persists the whole document. The
// assistant message may be nil when generation failed so the user's
// input is still preserved.
func (s *conversationService) AppendTurn(ctx context.Context, id string, userMessage, assistantMessage *entities.Message) (*entities.Conversation, error) {
	if id == "" {
		return nil, errs.ValidationErrorf("conversation ID is required")
	}
	if userMessage == nil || userMessage.Empty() {
		return nil, errs.ValidationErrorf("user message content is required")
	}
	if userMessage.Role != entities.RoleUser {
		return nil, errs.ValidationErrorf("user message role must be %q", entities.RoleUser)
	}
	if assistantMessage != nil {
		if assistantMessage.Empty() {
			return nil, errs.ValidationErrorf("assistant message content is required")
		}
		if assistantMessage.Role != entities.RoleAssistant {
			return nil, errs.ValidationErrorf("assistant message role must be %q", entities.RoleAssistant)
		}
	}

	conversation, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	conversation.Append(userMessage, assistantMessage)

	if err := s.store.UpsertConversation(ctx, conversation); err != nil {
		return nil, err
	}

	return conversation, nil
}

func (s *conversationService) ListConversations(ctx context.Context, cursor string, limit int) ([]*entities.ConversationSummary, string, error) {
	return s.store.ListSummaries(ctx, cursor, limit)
}

func (s *conversationService) DeleteConversation(ctx context.Context, id string) error {
	if id == "" {
		return errs.ValidationErrorf("conversation ID is required")
	}

	if err := s.store.DeleteConversation(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Deleted conversation", zap.String("conversation_id", id))
	return nil
}

var _ ConversationService = (*conversationService)(nil)
