package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/poc-rear/wotd-api/authority"
	"github.com/poc-rear/wotd-api/config"
	"github.com/poc-rear/wotd-api/handlers"
	"github.com/poc-rear/wotd-api/middleware"
	"github.com/poc-rear/wotd-api/repositories"
	"github.com/poc-rear/wotd-api/repositories/mongodb"
	"github.com/poc-rear/wotd-api/repositories/postgres"
	"github.com/poc-rear/wotd-api/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is a persistence backend that can hand out repositories
type Store interface {
	NewRepositories() *repositories.Repositories
	Close(ctx context.Context) error
}

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	Store  Store
	Redis  *redis.Client

	// Repositories
	Repos *repositories.Repositories

	// Services
	Identity *services.IdentityResolver
	Users    *services.UserService
	Words    *services.WordService

	// Auth
	KeySource      *authority.CachedKeySource
	Validator      *authority.Validator
	Signer         *authority.Signer
	AuthMiddleware *middleware.AuthMiddleware

	// Handlers
	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	WordHandler   *handlers.WordHandler
	HealthHandler *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	deps, err := NewDependenciesWithStore(cfg, store, logger)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithStore wires everything above an already opened store
func NewDependenciesWithStore(cfg *config.Config, store Store, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Repos:  store.NewRepositories(),
	}

	deps.initServices()

	if err := deps.initAuth(); err != nil {
		_ = deps.closeRedis()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("dev_mode", cfg.Auth.DevMode))
	return deps, nil
}

// openStore connects the configured persistence backend
func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		factory, err := postgres.NewRepositoryFactory(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return factory, nil
	case config.StoreDriverMongo:
		factory, err := mongodb.NewRepositoryFactory(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		return factory, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func (d *Dependencies) initServices() {
	cfg := d.Config
	d.Identity = services.NewIdentityResolver(d.Repos.Users, cfg.Store.QueryTimeout, d.Logger)
	d.Users = services.NewUserService(d.Repos.Users, cfg.Security.PasswordHashCost, d.Logger)
	d.Words = services.NewWordService(d.Repos, d.Logger)
}

func (d *Dependencies) initAuth() error {
	cfg := d.Config.Auth

	if cfg.SigningKeyFile != "" {
		signer, err := authority.LoadSigner(cfg.SigningKeyFile, cfg.SigningKeyID, cfg.Authority, cfg.TokenTTL)
		if err != nil {
			return err
		}
		d.Signer = signer
		d.Logger.Info("local token signing enabled", zap.String("kid", cfg.SigningKeyID))
	}

	if cfg.DevMode {
		d.Logger.Warn("development mode: tokens are not verified")
		d.AuthMiddleware = middleware.NewAuthMiddleware(cfg, nil, d.Identity, d.Logger)
		return nil
	}

	cache, err := d.keySetCache()
	if err != nil {
		return err
	}

	d.KeySource = authority.NewCachedKeySource(
		authority.NewFetcher(cfg.JWKSTimeout, d.Logger),
		cache,
		authority.CacheOptions{TTL: cfg.JWKSCacheTTL, MinRefresh: cfg.JWKSMinRefresh},
		d.Logger,
	)
	d.Validator = authority.NewValidator(d.KeySource, cfg.Authority, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(cfg, d.Validator, d.Identity, d.Logger)

	d.Logger.Info("token validation enabled",
		zap.String("authority", cfg.Authority),
		zap.String("jwks_cache", cfg.JWKSCache),
		zap.Duration("jwks_cache_ttl", cfg.JWKSCacheTTL))
	return nil
}

func (d *Dependencies) keySetCache() (authority.KeySetCache, error) {
	if d.Config.Auth.JWKSCache != config.KeySetCacheRedis {
		return authority.NewMemoryKeySetCache(), nil
	}

	rc := d.Config.Redis
	d.Redis = redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	d.Logger.Info("redis key-set cache configured", zap.String("addr", rc.Addr))
	return authority.NewRedisKeySetCache(d.Redis), nil
}

func (d *Dependencies) initHandlers() {
	// A nil *Signer must stay a nil interface so login reports missing issuance.
	var issuer handlers.TokenIssuer
	if d.Signer != nil {
		issuer = d.Signer
	}

	d.AuthHandler = handlers.NewAuthHandler(d.Config.Auth, d.Users, issuer, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.Users, d.Logger)
	d.WordHandler = handlers.NewWordHandler(d.Words, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.Repos.Health, d.Logger)
}

func (d *Dependencies) closeRedis() error {
	if d.Redis == nil {
		return nil
	}
	return d.Redis.Close()
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if err := d.closeRedis(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
	}

	if d.Store != nil {
		if err := d.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		} else {
			d.Logger.Info("store connection closed")
		}
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}
	return nil
}
