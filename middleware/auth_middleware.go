package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/poc-rear/wotd-api/authority"
	"github.com/poc-rear/wotd-api/config"
	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/services"
	"github.com/poc-rear/wotd-api/utils"
	"go.uber.org/zap"
)

// TokenValidator verifies a production token and returns its subject
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// IdentityResolver loads the identity behind a username
type IdentityResolver interface {
	Resolve(ctx context.Context, username string) (*models.Identity, error)
}

const (
	msgUnauthorized = "Authentication required"
	msgInternal     = "Internal server error"
)

// AuthMiddleware gates protected routes on the auth cookie
type AuthMiddleware struct {
	cookieName string
	devMode    bool
	validator  TokenValidator
	resolver   IdentityResolver
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
// validator may be nil when cfg.DevMode is set.
func NewAuthMiddleware(cfg config.AuthConfig, validator TokenValidator, resolver IdentityResolver, logger *zap.Logger) *AuthMiddleware {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = config.DefaultCookieName
	}
	return &AuthMiddleware{
		cookieName: cookieName,
		devMode:    cfg.DevMode,
		validator:  validator,
		resolver:   resolver,
		logger:     logger,
	}
}

// RequireAuth runs next only when the request carries a token that resolves to a stored user
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)
		log := m.logger.With(zap.String("request_id", requestID))

		token := m.extractToken(r)
		if token == "" {
			log.Debug("missing auth cookie")
			_ = utils.WriteUnauthorized(w, msgUnauthorized)
			return
		}

		username, status := m.username(ctx, token, log)
		if status != 0 {
			_ = utils.WriteError(w, status, statusMessage(status), nil)
			return
		}

		identity, err := m.resolver.Resolve(ctx, username)
		if ctx.Err() != nil {
			log.Debug("request cancelled during authentication", zap.Error(ctx.Err()))
			return
		}
		if err != nil {
			if services.IsUnauthorizedError(err) {
				log.Warn("token subject not found", zap.String("username", username))
				_ = utils.WriteUnauthorized(w, msgUnauthorized)
				return
			}
			log.Error("identity lookup failed", zap.Error(err))
			_ = utils.WriteInternalServerError(w, msgInternal)
			return
		}

		log.Debug("authentication successful",
			zap.String("user_id", identity.ID),
			zap.String("username", identity.Username))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
	})
}

// username derives the lookup key from the token. A non-zero status rejects the request.
func (m *AuthMiddleware) username(ctx context.Context, token string, log *zap.Logger) (string, int) {
	if m.devMode {
		username, ok := DevUsername(token)
		if !ok {
			log.Debug("malformed development token")
			return "", http.StatusUnauthorized
		}
		return username, 0
	}

	if m.validator == nil {
		log.Error("no token validator configured")
		return "", http.StatusInternalServerError
	}

	subject, err := m.validator.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, authority.ErrKeySetUnavailable) {
			log.Error("key set unavailable", zap.Error(err))
			return "", http.StatusInternalServerError
		}
		log.Warn("token validation failed", zap.Error(err))
		return "", http.StatusUnauthorized
	}
	return subject, 0
}

// DevUsername returns segment 1 of a dot-delimited development token
func DevUsername(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (m *AuthMiddleware) extractToken(r *http.Request) string {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func statusMessage(status int) string {
	if status == http.StatusInternalServerError {
		return msgInternal
	}
	return msgUnauthorized
}
