package repositories_mongo

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kodechat/chatbot/internal/domain/entities"
	"github.com/kodechat/chatbot/internal/domain/errs"
	"github.com/kodechat/chatbot/internal/domain/interfaces"
)

const defaultListLimit = 20

// MongoConversationStore persists one document per conversation, keyed
// by _id. Lookups never scan: _id is the primary index and listings
// are served by a secondary index on (updated_at, _id).
type MongoConversationStore struct {
	collection *mongo.Collection
}

func NewMongoConversationStore(collection *mongo.Collection) *MongoConversationStore {
	return &MongoConversationStore{
		collection: collection,
	}
}

// EnsureIndexes creates the (updated_at, _id) index that backs
// ListSummaries. Safe to call on every startup.
func (r *MongoConversationStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return errs.StorageErrorf("failed to create updated_at index: %v", err)
	}

	return nil
}

func (r *MongoConversationStore) GetConversation(ctx context.Context, id string) (*entities.Conversation, error) {
	var conversation entities.Conversation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conversation)
	if err == mongo.ErrNoDocuments {
		return nil, errs.NotFoundErrorf("conversation not found: %s", id)
	}
	if err != nil {
		return nil, errs.StorageErrorf("failed to get conversation: %v", err)
	}

	return &conversation, nil
}

func (r *MongoConversationStore) UpsertConversation(ctx context.Context, conversation *entities.Conversation) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": conversation.ID},
		conversation,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errs.StorageErrorf("failed to upsert conversation: %v", err)
	}

	return nil
}

func (r *MongoConversationStore) ListSummaries(ctx context.Context, cursor string, limit int) ([]*entities.ConversationSummary, string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := bson.M{}
	if cursor != "" {
		watermark, lastID, err := parseListCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		// Tie-break on _id so conversations sharing the boundary
		// timestamp are not skipped on the next page.
		filter["$or"] = bson.A{
			bson.M{"updated_at": bson.M{"$lt": watermark}},
			bson.M{"updated_at": watermark, "_id": bson.M{"$lt": lastID}},
		}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	mongoCursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, "", errs.StorageErrorf("failed to list conversations: %v", err)
	}
	defer mongoCursor.Close(ctx)

	summaries := make([]*entities.ConversationSummary, 0, limit)
	for mongoCursor.Next(ctx) {
		var conversation entities.Conversation
		if err := mongoCursor.Decode(&conversation); err != nil {
			return nil, "", errs.StorageErrorf("failed to decode conversation: %v", err)
		}
		summaries = append(summaries, conversation.Summary())
	}

	if err := mongoCursor.Err(); err != nil {
		return nil, "", errs.StorageErrorf("failed to list conversations: %v", err)
	}

	nextCursor := ""
	if len(summaries) == limit {
		last := summaries[len(summaries)-1]
		nextCursor = formatListCursor(last.UpdatedAt, last.ID)
	}

	return summaries, nextCursor, nil
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

func (r *MongoConversationStore) DeleteConversation(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errs.StorageErrorf("failed to delete conversation: %v", err)
	}
	if result.DeletedCount == 0 {
		return errs.NotFoundErrorf("conversation not found: %s", id)
	}

	return nil
}

var _ interfaces.ConversationStore = (*MongoConversationStore)(nil)
