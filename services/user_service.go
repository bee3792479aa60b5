package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages accounts and password checks
type UserService struct {
	users    repositories.UserRepository
	hashCost int
	logger   *zap.Logger

	// dummyHash is compared against for unknown users so both login
	// failures cost one bcrypt comparison at the configured cost.
	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, hashCost int, logger *zap.Logger) *UserService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &UserService{
		users:    users,
		hashCost: hashCost,
		logger:   logger,
	}
}

// Register hashes password and stores a new user
func (s *UserService) Register(ctx context.Context, username, password, email string) (*models.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput.WithDetail("reason", "username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrInvalidInput.WithDetail("password", "password must be at most 72 bytes")
		}
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(username, string(hash), email)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateUsername.WithDetail("username", username)
		}
		return nil, WrapInternal("failed to create user", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username))

	return user.Identity(), nil
}

// Get returns the public view of a user
func (s *UserService) Get(ctx context.Context, username string) (*models.Identity, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound.WithDetail("username", username)
		}
		return nil, WrapInternal("failed to load user", err)
	}
	return user.Identity(), nil
}

// Authenticate checks a username/password pair.
// Unknown users and wrong passwords both return ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, WrapInternal("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return user.Identity(), nil
}

func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("wotd-placeholder"), s.hashCost)
	})
	return s.dummyHash
}
