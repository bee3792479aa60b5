package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poc-rear/wotd-api/config"
	"github.com/poc-rear/wotd-api/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Collection names
const (
	CollectionUsers      = "users"
	CollectionWords      = "words"
	CollectionQueueWords = "queue_words"
)

// DB wraps a connected client and the application database
type DB struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger
}

// NewDB connects to MongoDB and verifies the primary is reachable
func NewDB(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("mongodb connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		client:   client,
		database: client.Database(cfg.Database),
		logger:   logger,
	}, nil
}

// Database returns the application database handle
func (db *DB) Database() *mongo.Database {
	return db.database
}

// HealthCheck pings the primary
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client
func (db *DB) Close(ctx context.Context) error {
	db.logger.Info("closing mongodb connection")
	return db.client.Disconnect(ctx)
}

// InitSchema creates the unique and ordering indexes the repositories rely on
func InitSchema(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionWords: {
			{Keys: bson.D{{Key: "word", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		CollectionQueueWords: {
			{Keys: bson.D{{Key: "word.word", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "added_at", Value: 1}}},
		},
	}

	for collection, specs := range indexes {
		if _, err := database.Collection(collection).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// mapError translates driver errors into repository sentinels
func mapError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repositories.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", repositories.ErrDuplicate, err)
	}
	return err
}
