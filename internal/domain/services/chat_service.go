package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kodechat/chatbot/internal/domain/entities"
	"github.com/kodechat/chatbot/internal/domain/errs"
	"github.com/kodechat/chatbot/internal/domain/events"
	"github.com/kodechat/chatbot/internal/domain/interfaces"
)

// RetryPolicy bounds retries of the generation backend. Only transient
// failures are retried; store writes are never retried.
type RetryPolicy struct {
	MaxRetries        int
	BackoffBase       time.Duration
	BackoffMultiplier float64
}

// ChatResult is the outcome of one accepted turn.
type ChatResult struct {
	ConversationID string
	Message        *entities.Message
	Model          string
}

// ChatService is the unit of work for one incoming chat request: it
// loads or creates the conversation, serializes access per
// conversation id, calls the generation backend and persists the turn.
type ChatService interface {
	HandleMessage(ctx context.Context, conversationID, userText string) (*ChatResult, error)
	DeleteConversation(ctx context.Context, id string) error
}

type chatService struct {
	conversations ConversationService
	engine        *DialogueEngine
	generator     interfaces.Generator
	retry         RetryPolicy
	locks         *conversationLocks
	logger        *zap.Logger
}

func NewChatService(
	conversations ConversationService,
	engine *DialogueEngine,
	generator interfaces.Generator,
	retry RetryPolicy,
	logger *zap.Logger,
) *chatService {
	return &chatService{
		conversations: conversations,
		engine:        engine,
		generator:     generator,
		retry:         retry,
		locks:         newConversationLocks(),
		logger:        logger,
	}
}

func (s *chatService) HandleMessage(ctx context.Context, conversationID, userText string) (*ChatResult, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, errs.ValidationErrorf("message content is required")
	}

	var conversation *entities.Conversation
	var err error
	if conversationID == "" {
		// The first user message doubles as the title, matching the
		// implicit-create behavior of the chat endpoint.
		conversation, err = s.conversations.LoadOrCreate(ctx, "", userText)
		if err != nil {
			return nil, err
		}
		unlock := s.locks.Acquire(conversation.ID)
		defer unlock()
	} else {
		// Load under the lock so concurrent turns against the same
		// conversation observe each other's appends.
		unlock := s.locks.Acquire(conversationID)
		defer unlock()
		conversation, err = s.conversations.LoadOrCreate(ctx, conversationID, userText)
		if err != nil {
			return nil, err
		}
	}

	userMessage := entities.NewMessage(entities.RoleUser, userText)
	prompt := s.engine.BuildPrompt(conversation.Messages, userText)

	reply, genErr := s.generateWithRetry(ctx, prompt)

	var assistantMessage *entities.Message
	if genErr == nil {
		assistantMessage, genErr = s.engine.FoldReply(reply)
	}

	if genErr != nil {
		// Persist the user's message alone so the input is not lost
		// and the client can retry the turn against the same id.
		if _, err := s.conversations.AppendTurn(ctx, conversation.ID, userMessage, nil); err != nil {
			s.logger.Error("Failed to persist user message after generation failure",
				zap.String("conversation_id", conversation.ID),
				zap.Error(err))
			return nil, err
		}
		events.PublishTurnEvent(conversation.ID, []*entities.Message{userMessage})

		if _, canceled := genErr.(*errs.CanceledError); canceled {
			return nil, genErr
		}
		s.logger.Warn("Generation failed",
			zap.String("conversation_id", conversation.ID),
			zap.Error(genErr))
		return nil, errs.GenerationErrorf(conversation.ID, "failed to generate a reply: %v", genErr)
	}

	updated, err := s.conversations.AppendTurn(ctx, conversation.ID, userMessage, assistantMessage)
	if err != nil {
		return nil, err
	}
	events.PublishTurnEvent(updated.ID, []*entities.Message{userMessage, assistantMessage})

	return &ChatResult{
		ConversationID: updated.ID,
		Message:        assistantMessage,
		Model:          s.generator.ModelName(),
	}, nil
}

// DeleteConversation removes a conversation under the same per-id lock
// that serializes turns, so an acknowledged delete is never resurrected
// by an in-flight turn's write.
func (s *chatService) DeleteConversation(ctx context.Context, id string) error {
	unlock := s.locks.Acquire(id)
	defer unlock()

	return s.conversations.DeleteConversation(ctx, id)
}

// generateWithRetry calls the backend, retrying transient failures with
// exponential backoff. Fatal failures propagate immediately.
func (s *chatService) generateWithRetry(ctx context.Context, prompt []*entities.Message) (string, error) {
	backoff := s.retry.BackoffBase
	var lastErr error

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", errs.CanceledErrorf("message processing was canceled")
		}

		reply, err := s.generator.Generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if _, transient := err.(*errs.TransientError); !transient {
			return "", err
		}
		if attempt == s.retry.MaxRetries {
			break
		}

		s.logger.Warn("Transient generation failure, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", errs.CanceledErrorf("message processing was canceled")
		}
		backoff = time.Duration(float64(backoff) * s.retry.BackoffMultiplier)
	}

	return "", lastErr
}

var _ ChatService = (*chatService)(nil)
