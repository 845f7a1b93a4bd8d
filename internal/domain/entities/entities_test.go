package entities

import (
	"strings"
	"testing"
	"time"
)

func TestNewConversation(t *testing.T) {
	conversation := NewConversation("My Topic")

	if conversation.ID == "" {
		t.Error("Expected a generated ID")
	}
	if conversation.Title != "My Topic" {
		t.Errorf("Expected title 'My Topic', got %s", conversation.Title)
	}
	if len(conversation.Messages) != 0 {
		t.Errorf("Expected empty messages, got %d", len(conversation.Messages))
	}
	if conversation.CreatedAt.IsZero() || conversation.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
	if conversation.UpdatedAt.Before(conversation.CreatedAt) {
		t.Error("Expected UpdatedAt >= CreatedAt")
	}
}

func TestNewConversation_DistinctIDs(t *testing.T) {
	first := NewConversation("")
	second := NewConversation("")

	if first.ID == second.ID {
		t.Errorf("Expected distinct IDs, got %s twice", first.ID)
	}
}

func TestConversation_Append(t *testing.T) {
	conversation := NewConversation("")
	before := conversation.UpdatedAt

	time.Sleep(time.Millisecond)
	user := NewMessage(RoleUser, "hi")
	assistant := NewMessage(RoleAssistant, "hello!")
	conversation.Append(user, assistant)

	if len(conversation.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(conversation.Messages))
	}
	if conversation.Messages[0].Content != "hi" || conversation.Messages[1].Content != "hello!" {
		t.Error("Expected messages in append order")
	}
	if !conversation.UpdatedAt.After(before) {
		t.Error("Expected UpdatedAt to advance on append")
	}
}

func TestConversation_AppendSkipsNil(t *testing.T) {
	conversation := NewConversation("")
	conversation.Append(NewMessage(RoleUser, "hi"), nil)

	if len(conversation.Messages) != 1 {
		t.Errorf("Expected 1 message, got %d", len(conversation.Messages))
	}
}

func TestConversation_MessageOrdering(t *testing.T) {
	conversation := NewConversation("")
	for i := 0; i < 5; i++ {
		conversation.Append(NewMessage(RoleUser, "msg"))
	}

	for i := 1; i < len(conversation.Messages); i++ {
		if conversation.Messages[i].Timestamp.Before(conversation.Messages[i-1].Timestamp) {
			t.Errorf("Expected non-decreasing timestamps at index %d", i)
		}
	}
}

func TestConversation_Clone(t *testing.T) {
	conversation := NewConversation("original")
	conversation.Append(NewMessage(RoleUser, "hi"))

	clone := conversation.Clone()
	clone.Messages[0].Content = "changed"
	clone.Title = "changed"

	if conversation.Messages[0].Content != "hi" {
		t.Error("Expected clone mutation not to affect the original messages")
	}
	if conversation.Title != "original" {
		t.Error("Expected clone mutation not to affect the original title")
	}
}

func TestConversation_Summary(t *testing.T) {
	conversation := NewConversation("Topic")
	conversation.Append(NewMessage(RoleUser, "hi"), NewMessage(RoleAssistant, "hello!"))

	summary := conversation.Summary()

	if summary.ID != conversation.ID {
		t.Errorf("Expected summary ID %s, got %s", conversation.ID, summary.ID)
	}
	if summary.MessageCount != 2 {
		t.Errorf("Expected message count 2, got %d", summary.MessageCount)
	}
	if summary.LastMessage != "hello!" {
		t.Errorf("Expected last message 'hello!', got %s", summary.LastMessage)
	}
}

func TestConversation_SummaryTruncatesPreview(t *testing.T) {
	conversation := NewConversation("")
	long := strings.Repeat("a", 80)
	conversation.Append(NewMessage(RoleAssistant, long))

	summary := conversation.Summary()

	expected := strings.Repeat("a", 50) + "..."
	if summary.LastMessage != expected {
		t.Errorf("Expected truncated preview of 50 runes, got %q", summary.LastMessage)
	}
}

func TestNewMessage(t *testing.T) {
	message := NewMessage(RoleUser, "hello")

	if message.ID == "" {
		t.Error("Expected a generated ID")
	}
	if message.Role != RoleUser {
		t.Errorf("Expected role %s, got %s", RoleUser, message.Role)
	}
	if message.Content != "hello" {
		t.Errorf("Expected content 'hello', got %s", message.Content)
	}
	if message.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestMessage_Empty(t *testing.T) {
	if !NewMessage(RoleAssistant, "").Empty() {
		t.Error("Expected empty content to be empty")
	}
	if !NewMessage(RoleAssistant, "   \n\t").Empty() {
		t.Error("Expected whitespace-only content to be empty")
	}
	if NewMessage(RoleAssistant, "hi").Empty() {
		t.Error("Expected non-empty content not to be empty")
	}
}
