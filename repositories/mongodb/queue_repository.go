package mongodb

import (
	"context"
	"fmt"

	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var oldestFirst = bson.D{{Key: "added_at", Value: 1}}

// QueueRepository implements the repositories.QueueRepository interface.
// Items embed a copy of the word document.
type QueueRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(database *mongo.Database, logger *zap.Logger) repositories.QueueRepository {
	return &QueueRepository{
		collection: database.Collection(CollectionQueueWords),
		logger:     logger,
	}
}

// Enqueue appends an item to the queue
func (r *QueueRepository) Enqueue(ctx context.Context, item *models.QueueItem) error {
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("failed to enqueue word: %w", mapError(err))
	}

	r.logger.Debug("word enqueued", zap.String("id", item.ID), zap.String("word", item.Word.Word))
	return nil
}

// FindByWord retrieves the queued item for a word
func (r *QueueRepository) FindByWord(ctx context.Context, text string) (*models.QueueItem, error) {
	item := &models.QueueItem{}
	if err := r.collection.FindOne(ctx, bson.D{{Key: "word.word", Value: text}}).Decode(item); err != nil {
		return nil, fmt.Errorf("failed to find queued word %q: %w", text, mapError(err))
	}
	return item, nil
}

// Oldest retrieves the item with the earliest added_at
func (r *QueueRepository) Oldest(ctx context.Context) (*models.QueueItem, error) {
	item := &models.QueueItem{}
	opts := options.FindOne().SetSort(oldestFirst)
	if err := r.collection.FindOne(ctx, bson.D{}, opts).Decode(item); err != nil {
		return nil, fmt.Errorf("failed to get oldest queued word: %w", mapError(err))
	}
	return item, nil
}

// PopOldest removes and returns the item with the earliest added_at
func (r *QueueRepository) PopOldest(ctx context.Context) (*models.QueueItem, error) {
	item := &models.QueueItem{}
	opts := options.FindOneAndDelete().SetSort(oldestFirst)
	if err := r.collection.FindOneAndDelete(ctx, bson.D{}, opts).Decode(item); err != nil {
		return nil, fmt.Errorf("failed to pop queued word: %w", mapError(err))
	}

	r.logger.Debug("word dequeued", zap.String("id", item.ID), zap.String("word", item.Word.Word))
	return item, nil
}
