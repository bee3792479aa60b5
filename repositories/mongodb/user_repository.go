package mongodb

import (
	"context"
	"fmt"

	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *mongo.Database, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		collection: database.Collection(CollectionUsers),
		logger:     logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}

	r.logger.Debug("user created", zap.String("id", user.ID), zap.String("username", user.Username))
	return nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := r.collection.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, mapError(err))
	}
	return user, nil
}
