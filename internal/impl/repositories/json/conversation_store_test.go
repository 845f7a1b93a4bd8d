package repositories_json

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kodechat/chatbot/internal/domain/entities"
	"github.com/kodechat/chatbot/internal/domain/errs"
)

func TestJsonConversationStore_RoundTrip(t *testing.T) {
	store, err := NewJSONConversationStore(t.TempDir())
	assert.NoError(t, err)
	ctx := context.Background()

	conversation := entities.NewConversation("Topic")
	conversation.Append(
		entities.NewMessage(entities.RoleUser, "hi"),
		entities.NewMessage(entities.RoleAssistant, "hello!"))

	assert.NoError(t, store.UpsertConversation(ctx, conversation))

	loaded, err := store.GetConversation(ctx, conversation.ID)
	assert.NoError(t, err)
	assert.Equal(t, conversation.ID, loaded.ID)
	assert.Equal(t, "Topic", loaded.Title)
	assert.Len(t, loaded.Messages, 2)
	assert.Equal(t, "hi", loaded.Messages[0].Content)
	assert.Equal(t, "hello!", loaded.Messages[1].Content)
}

func TestJsonConversationStore_GetReturnsCopy(t *testing.T) {
	store, err := NewJSONConversationStore(t.TempDir())
	assert.NoError(t, err)
	ctx := context.Background()

	conversation := entities.NewConversation("")
	conversation.Append(entities.NewMessage(entities.RoleUser, "hi"))
	assert.NoError(t, store.UpsertConversation(ctx, conversation))

	loaded, _ := store.GetConversation(ctx, conversation.ID)
	loaded.Messages[0].Content = "mutated"

	reloaded, _ := store.GetConversation(ctx, conversation.ID)
	assert.Equal(t, "hi", reloaded.Messages[0].Content)
}

func TestJsonConversationStore_NotFound(t *testing.T) {
	store, err := NewJSONConversationStore(t.TempDir())
	assert.NoError(t, err)

	_, err = store.GetConversation(context.Background(), "missing")
	assert.IsType(t, &errs.NotFoundError{}, err)
}

func TestJsonConversationStore_Delete(t *testing.T) {
	store, err := NewJSONConversationStore(t.TempDir())
	assert.NoError(t, err)
	ctx := context.Background()

	conversation := entities.NewConversation("")
	assert.NoError(t, store.UpsertConversation(ctx, conversation))

	assert.NoError(t, store.DeleteConversation(ctx, conversation.ID))

	_, err = store.GetConversation(ctx, conversation.ID)
	assert.IsType(t, &errs.NotFoundError{}, err)

	// Strict policy: deleting twice reports not found both times.
	err = store.DeleteConversation(ctx, conversation.ID)
	assert.IsType(t, &errs.NotFoundError{}, err)
}

func TestJsonConversationStore_DeleteRemovesFromListing(t *testing.T) {
	store, err := NewJSONConversationStore(t.TempDir())
	assert.NoError(t, err)
	ctx := context.Background()

	conversation := entities.NewConversation("")
	assert.NoError(t, store.UpsertConversation(ctx, conversation))
	assert.NoError(t, store.DeleteConversation(ctx, conversation.ID))

	summaries, _, err := store.ListSummaries(ctx, "", 10)
	assert.NoError(t, err)
	for _, summary := range summaries {
		assert.NotEqual(t, conversation.ID, summary.ID)
	}
}

func TestJsonConversationStore_ListOrderingAndCursor(t *testing.T) {
	store, err := NewJSONConversationStore(t.TempDir())
	assert.NoError(t, err)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		conversation := entities.NewConversation("")
		// Spread updated_at so the ordering is deterministic.
		conversation.UpdatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		assert.NoError(t, store.UpsertConversation(ctx, conversation))
		ids = append(ids, conversation.ID)
	}

	first, cursor, err := store.ListSummaries(ctx, "", 3)
	assert.NoError(t, err)
	assert.Len(t, first, 3)
	assert.NotEmpty(t, cursor)
	// Most recently updated first.
	assert.Equal(t, ids[4], first[0].ID)
	assert.Equal(t, ids[3], first[1].ID)
	assert.Equal(t, ids[2], first[2].ID)

	second, _, err := store.ListSummaries(ctx, cursor, 3)
	assert.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, ids[1], second[0].ID)
	assert.Equal(t, ids[0], second[1].ID)
}

func TestJsonConversationStore_ListCursorEqualTimestamps(t *testing.T) {
	store, err := NewJSONConversationStore(t.TempDir())
	assert.NoError(t, err)
	ctx := context.Background()

	// Conversations updated in the same instant must all surface
	// across pages instead of being skipped at the page boundary.
	stamp := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		conversation := entities.NewConversation("")
		conversation.CreatedAt = stamp
		conversation.UpdatedAt = stamp
		assert.NoError(t, store.UpsertConversation(ctx, conversation))
		seen[conversation.ID] = false
	}

	cursor := ""
	for i := 0; i < 3; i++ {
		page, next, err := store.ListSummaries(ctx, cursor, 1)
		assert.NoError(t, err)
		assert.Len(t, page, 1)
		assert.False(t, seen[page[0].ID], "conversation returned twice")
		seen[page[0].ID] = true
		cursor = next
	}
	for id, found := range seen {
		assert.True(t, found, "conversation %s was skipped", id)
	}
}

func TestJsonConversationStore_InvalidCursor(t *testing.T) {
	store, err := NewJSONConversationStore(t.TempDir())
	assert.NoError(t, err)

	_, _, err = store.ListSummaries(context.Background(), "not-a-timestamp", 10)
	assert.IsType(t, &errs.ValidationError{}, err)
}

func TestJsonConversationStore_SurvivesReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewJSONConversationStore(dir)
	assert.NoError(t, err)

	conversation := entities.NewConversation("persisted")
	conversation.Append(entities.NewMessage(entities.RoleUser, "hi"))
	assert.NoError(t, store.UpsertConversation(ctx, conversation))

	reopened, err := NewJSONConversationStore(dir)
	assert.NoError(t, err)

	loaded, err := reopened.GetConversation(ctx, conversation.ID)
	assert.NoError(t, err)
	assert.Equal(t, "persisted", loaded.Title)
	assert.Len(t, loaded.Messages, 1)
}
