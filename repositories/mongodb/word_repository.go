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

// WordRepository implements the repositories.WordRepository interface
type WordRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewWordRepository creates a new word repository
func NewWordRepository(database *mongo.Database, logger *zap.Logger) repositories.WordRepository {
	return &WordRepository{
		collection: database.Collection(CollectionWords),
		logger:     logger,
	}
}

// Create creates a new word
func (r *WordRepository) Create(ctx context.Context, word *models.Word) error {
	if _, err := r.collection.InsertOne(ctx, word); err != nil {
		return fmt.Errorf("failed to create word: %w", mapError(err))
	}

	r.logger.Debug("word created", zap.String("id", word.ID), zap.String("word", word.Word))
	return nil
}

// GetByWord retrieves a word by its text
func (r *WordRepository) GetByWord(ctx context.Context, text string) (*models.Word, error) {
	word := &models.Word{}
	if err := r.collection.FindOne(ctx, bson.D{{Key: "word", Value: text}}).Decode(word); err != nil {
		return nil, fmt.Errorf("failed to get word %q: %w", text, mapError(err))
	}
	return word, nil
}

// List retrieves all words ordered by creation time
func (r *WordRepository) List(ctx context.Context) ([]*models.Word, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}

	words := []*models.Word{}
	if err := cursor.All(ctx, &words); err != nil {
		return nil, fmt.Errorf("failed to decode words: %w", err)
	}
	return words, nil
}
