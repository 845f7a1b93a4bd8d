package events

import (
	"github.com/kelindar/event"

	"github.com/kodechat/chatbot/internal/domain/entities"
)

// Event types
const (
	TurnEventType uint32 = 1
)

// TurnEventData is published after messages are persisted to a
// conversation, so live subscribers can stream them out.
type TurnEventData struct {
	ConversationID string
	Messages       []*entities.Message
}

// Type implements the Event interface
func (t TurnEventData) Type() uint32 {
	return TurnEventType
}

// PublishTurnEvent publishes the messages appended by one turn.
func PublishTurnEvent(conversationID string, messages []*entities.Message) {
	event.Emit(TurnEventData{ConversationID: conversationID, Messages: messages})
}

// SubscribeToTurnEvents subscribes to turn events and returns an
// unsubscribe function.
func SubscribeToTurnEvents(handler func(data TurnEventData)) func() {
	return event.On(handler)
}
