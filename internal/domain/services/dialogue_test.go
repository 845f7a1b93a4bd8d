package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/kodechat/chatbot/internal/domain/entities"
	"github.com/kodechat/chatbot/internal/domain/errs"
)

func TestDialogueEngine_BuildPrompt(t *testing.T) {
	engine := NewDialogueEngine(PromptOptions{}, zap.NewNop())

	history := []entities.Message{
		*entities.NewMessage(entities.RoleUser, "first question"),
		*entities.NewMessage(entities.RoleAssistant, "first answer"),
	}

	prompt := engine.BuildPrompt(history, "second question")

	assert.Len(t, prompt, 3)
	assert.Equal(t, "first question", prompt[0].Content)
	assert.Equal(t, "first answer", prompt[1].Content)
	assert.Equal(t, entities.RoleUser, prompt[2].Role)
	assert.Equal(t, "second question", prompt[2].Content)
}

func TestDialogueEngine_BuildPrompt_EmptyHistory(t *testing.T) {
	engine := NewDialogueEngine(PromptOptions{}, zap.NewNop())

	prompt := engine.BuildPrompt(nil, "hello")

	assert.Len(t, prompt, 1)
	assert.Equal(t, entities.RoleUser, prompt[0].Role)
	assert.Equal(t, "hello", prompt[0].Content)
}

func TestDialogueEngine_BuildPrompt_MaxTurns(t *testing.T) {
	engine := NewDialogueEngine(PromptOptions{MaxTurns: 1}, zap.NewNop())

	history := []entities.Message{
		*entities.NewMessage(entities.RoleSystem, "be helpful"),
		*entities.NewMessage(entities.RoleUser, "old question"),
		*entities.NewMessage(entities.RoleAssistant, "old answer"),
		*entities.NewMessage(entities.RoleUser, "recent question"),
		*entities.NewMessage(entities.RoleAssistant, "recent answer"),
	}

	prompt := engine.BuildPrompt(history, "new question")

	// System message survives; only the most recent exchange is kept
	// alongside the new user message.
	assert.Len(t, prompt, 4)
	assert.Equal(t, entities.RoleSystem, prompt[0].Role)
	assert.Equal(t, "recent question", prompt[1].Content)
	assert.Equal(t, "recent answer", prompt[2].Content)
	assert.Equal(t, "new question", prompt[3].Content)
}

func TestDialogueEngine_BuildPrompt_DoesNotMutateHistory(t *testing.T) {
	engine := NewDialogueEngine(PromptOptions{}, zap.NewNop())

	history := []entities.Message{
		*entities.NewMessage(entities.RoleUser, "question"),
	}

	prompt := engine.BuildPrompt(history, "another")
	prompt[0].Content = "changed"

	assert.Equal(t, "question", history[0].Content)
}

func TestDialogueEngine_FoldReply(t *testing.T) {
	engine := NewDialogueEngine(PromptOptions{}, zap.NewNop())

	message, err := engine.FoldReply("here is your answer")

	assert.NoError(t, err)
	assert.Equal(t, entities.RoleAssistant, message.Role)
	assert.Equal(t, "here is your answer", message.Content)
	assert.NotZero(t, message.Timestamp)
}

func TestDialogueEngine_FoldReply_Empty(t *testing.T) {
	engine := NewDialogueEngine(PromptOptions{}, zap.NewNop())

	for _, reply := range []string{"", "   ", "\n\t"} {
		message, err := engine.FoldReply(reply)

		assert.Nil(t, message)
		assert.IsType(t, &errs.EmptyReplyError{}, err)
	}
}
