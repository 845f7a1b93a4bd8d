package repositories_json

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kodechat/chatbot/internal/domain/entities"
	"github.com/kodechat/chatbot/internal/domain/errs"
	"github.com/kodechat/chatbot/internal/domain/interfaces"
)

const defaultListLimit = 20

// JsonConversationStore is the file-backed store used when no MongoDB
// is configured. The whole data set is kept in memory keyed by id and
// rewritten to a single JSON file on every mutation, so a reader never
// observes a conversation with a truncated message tail.
type JsonConversationStore struct {
	filePath string
	mu       sync.RWMutex
	data     map[string]*entities.Conversation
}

func NewJSONConversationStore(dataDir string) (*JsonConversationStore, error) {
	filePath := filepath.Join(dataDir, ".chatbot", "conversations.json")
	store := &JsonConversationStore{
		filePath: filePath,
		data:     make(map[string]*entities.Conversation),
	}

	if err := store.load(); err != nil {
		return nil, err
	}

	return store, nil
}

func (r *JsonConversationStore) load() error {
	data, err := os.ReadFile(r.filePath)
	if os.IsNotExist(err) {
		return nil // File doesn't exist yet, start with empty data
	}
	if err != nil {
		return errs.StorageErrorf("failed to read conversations.json: %v", err)
	}

	var conversations []*entities.Conversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return errs.StorageErrorf("failed to unmarshal conversations.json: %v", err)
	}

	for _, conversation := range conversations {
		if conversation.ID == "" {
			return errs.StorageErrorf("conversation is missing an ID")
		}
		if _, err := uuid.Parse(conversation.ID); err != nil {
			return errs.StorageErrorf("conversation has an invalid UUID: %v", err)
		}
		r.data[conversation.ID] = conversation
	}

	return nil
}

// save writes the full data set. Callers must hold the write lock.
func (r *JsonConversationStore) save() error {
	conversations := make([]*entities.Conversation, 0, len(r.data))
	for _, conversation := range r.data {
		conversations = append(conversations, conversation)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.Before(conversations[j].CreatedAt)
	})

	data, err := json.MarshalIndent(conversations, "", "  ")
	if err != nil {
		return errs.StorageErrorf("failed to marshal conversations: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.filePath), 0755); err != nil {
		return errs.StorageErrorf("failed to create directory: %v", err)
	}

	if err := os.WriteFile(r.filePath, data, 0644); err != nil {
		return errs.StorageErrorf("failed to write conversations.json: %v", err)
	}

	return nil
}

func (r *JsonConversationStore) GetConversation(ctx context.Context, id string) (*entities.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversation, ok := r.data[id]
	if !ok {
		return nil, errs.NotFoundErrorf("conversation not found: %s", id)
	}

	return conversation.Clone(), nil
}

func (r *JsonConversationStore) UpsertConversation(ctx context.Context, conversation *entities.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[conversation.ID] = conversation.Clone()

	return r.save()
}

func (r *JsonConversationStore) ListSummaries(ctx context.Context, cursor string, limit int) ([]*entities.ConversationSummary, string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var watermark time.Time
	var lastID string
	if cursor != "" {
		parsed, id, err := parseListCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		watermark = parsed
		lastID = id
	}

	r.mu.RLock()
	all := make([]*entities.ConversationSummary, 0, len(r.data))
	for _, conversation := range r.data {
		if cursor != "" {
			// Resume strictly after the cursor position, tie-breaking
			// on id so equal timestamps are not skipped.
			if conversation.UpdatedAt.After(watermark) {
				continue
			}
			if conversation.UpdatedAt.Equal(watermark) && conversation.ID >= lastID {
				continue
			}
		}
		all = append(all, conversation.Summary())
	}
	r.mu.RUnlock()

	// Most recently updated first
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if len(all) > limit {
		all = all[:limit]
	}

	nextCursor := ""
	if len(all) == limit {
		last := all[len(all)-1]
		nextCursor = formatListCursor(last.UpdatedAt, last.ID)
	}

	return all, nextCursor, nil
}

func formatListCursor(updatedAt time.Time, id string) string {
	return updatedAt.Format(time.RFC3339Nano) + "|" + id
}

func parseListCursor(cursor string) (time.Time, string, error) {
	stamp, id, ok := strings.Cut(cursor, "|")
	if !ok {
		return time.Time{}, "", errs.ValidationErrorf("invalid cursor: %s", cursor)
	}
	watermark, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return time.Time{}, "", errs.ValidationErrorf("invalid cursor: %s", cursor)
	}

	return watermark, id, nil
}

func (r *JsonConversationStore) DeleteConversation(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return errs.NotFoundErrorf("conversation not found: %s", id)
	}
	delete(r.data, id)

	return r.save()
}

var _ interfaces.ConversationStore = (*JsonConversationStore)(nil)
