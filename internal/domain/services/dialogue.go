package services

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/kodechat/chatbot/internal/domain/entities"
	"github.com/kodechat/chatbot/internal/domain/errs"
)

// PromptOptions bounds the context sent to the generation backend.
// Zero values mean unbounded.
type PromptOptions struct {
	// MaxTurns keeps only the most recent N user/assistant exchanges.
	// System messages are always kept.
	MaxTurns int
	// MaxPromptTokens drops the oldest non-system messages while the
	// estimated token count exceeds the budget.
	MaxPromptTokens int
}

// DialogueEngine transforms a conversation history plus a new user
// utterance into the prompt for the generation backend, and wraps
// backend replies into assistant messages. It is stateless: all state
// lives in the conversation passed in.
type DialogueEngine struct {
	options PromptOptions
	logger  *zap.Logger
}

func NewDialogueEngine(options PromptOptions, logger *zap.Logger) *DialogueEngine {
	return &DialogueEngine{
		options: options,
		logger:  logger,
	}
}

// BuildPrompt returns the full history followed by the new user
// message, in chronological order, truncated per PromptOptions.
func (e *DialogueEngine) BuildPrompt(history []entities.Message, userText string) []*entities.Message {
	prompt := make([]*entities.Message, 0, len(history)+1)
	for i := range history {
		msg := history[i]
		prompt = append(prompt, &msg)
	}
	newUser := entities.NewMessage(entities.RoleUser, userText)
	return append(e.truncate(prompt, newUser), newUser)
}

// FoldReply wraps backend output as an assistant message. An empty or
// whitespace-only reply is rejected so it is never persisted.
func (e *DialogueEngine) FoldReply(reply string) (*entities.Message, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, errs.EmptyReplyErrorf("generation backend returned an empty reply")
	}
	return entities.NewMessage(entities.RoleAssistant, reply), nil
}

// truncate bounds the history per PromptOptions. System messages and
// the new user message are always kept.
func (e *DialogueEngine) truncate(history []*entities.Message, newUser *entities.Message) []*entities.Message {
	if e.options.MaxTurns <= 0 && e.options.MaxPromptTokens <= 0 {
		return history
	}

	var system, rest []*entities.Message
	for _, msg := range history {
		if msg.Role == entities.RoleSystem {
			system = append(system, msg)
		} else {
			rest = append(rest, msg)
		}
	}

	if e.options.MaxTurns > 0 {
		keep := e.options.MaxTurns * 2
		if len(rest) > keep {
			e.logger.Debug("Truncating prompt by turns",
				zap.Int("dropped", len(rest)-keep),
				zap.Int("max_turns", e.options.MaxTurns))
			rest = rest[len(rest)-keep:]
		}
	}

	if e.options.MaxPromptTokens > 0 {
		total := estimateTokens(newUser)
		for _, msg := range system {
			total += estimateTokens(msg)
		}
		for _, msg := range rest {
			total += estimateTokens(msg)
		}
		for total > e.options.MaxPromptTokens && len(rest) > 0 {
			total -= estimateTokens(rest[0])
			rest = rest[1:]
		}
		e.logger.Debug("Prompt token estimate", zap.Int("tokens", total))
	}

	return append(system, rest...)
}

func estimateTokens(msg *entities.Message) int {
	enc, err := tiktoken.EncodingForModel("gpt-4")
	if err != nil {
		return 0
	}

	tokens := enc.Encode(msg.Content, nil, nil)

	return len(tokens)
}
