package mongodb

import (
	"context"

	"github.com/poc-rear/wotd-api/config"
	"github.com/poc-rear/wotd-api/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory connects to MongoDB and ensures the indexes exist
func NewRepositoryFactory(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := InitSchema(ctx, db.Database()); err != nil {
		_ = db.Close(context.Background())
		return nil, err
	}
	logger.Info("mongodb indexes ensured")

	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	database := f.db.Database()
	return &repositories.Repositories{
		Users:     NewUserRepository(database, f.logger),
		Words:     NewWordRepository(database, f.logger),
		Queue:     NewQueueRepository(database, f.logger),
		TxManager: TransactionManager{},
		Health:    f.db,
	}
}

// Close disconnects from MongoDB
func (f *RepositoryFactory) Close(ctx context.Context) error {
	return f.db.Close(ctx)
}
