package services

import (
	"context"
	"errors"
	"time"

	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/repositories"
	"go.uber.org/zap"
)

// IdentityResolver maps a username from a verified token to a stored user
type IdentityResolver struct {
	users   repositories.UserRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewIdentityResolver creates a resolver whose lookups are bounded by timeout
func NewIdentityResolver(users repositories.UserRepository, timeout time.Duration, logger *zap.Logger) *IdentityResolver {
	return &IdentityResolver{
		users:   users,
		timeout: timeout,
		logger:  logger,
	}
}

// Resolve returns the identity for username.
// An unknown user is ErrUnauthorized; a store failure is an internal error.
func (r *IdentityResolver) Resolve(ctx context.Context, username string) (*models.Identity, error) {
	if username == "" {
		return nil, ErrUnauthorized
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	user, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			r.logger.Debug("token subject has no user", zap.String("username", username))
			return nil, ErrUnauthorized
		}
		return nil, WrapInternal("failed to resolve identity", err)
	}

	return user.Identity(), nil
}
