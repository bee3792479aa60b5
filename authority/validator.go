package authority

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	// ErrMalformedToken is returned when the token is not a parseable JWT
	ErrMalformedToken = errors.New("malformed token")

	// ErrMissingKeyID is returned when the token header carries no kid
	ErrMissingKeyID = errors.New("token has no key id")

	// ErrUnknownKeyID is returned when no published key matches the kid
	ErrUnknownKeyID = errors.New("unknown key id")

	// ErrInvalidToken is returned when the signature or time claims do not verify
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when iss is not the configured authority
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrMissingSubject is returned when the token has no sub claim
	ErrMissingSubject = errors.New("token has no subject")
)

// KeySource provides key sets for an authority
type KeySource interface {
	KeySet(ctx context.Context, authority string) (*JWKS, error)
	Refresh(ctx context.Context, authority string) (*JWKS, bool, error)
}

// Validator verifies tokens issued by a single authority
type Validator struct {
	keys      KeySource
	authority string
	leeway    time.Duration
	logger    *zap.Logger
}

// NewValidator creates a validator trusting authority
func NewValidator(keys KeySource, authority string, logger *zap.Logger) *Validator {
	return &Validator{
		keys:      keys,
		authority: authority,
		leeway:    30 * time.Second,
		logger:    logger,
	}
}

// Validate verifies token and returns its subject.
// Failing to obtain any key set wraps ErrKeySetUnavailable; every other
// failure, including a failed refresh on an unknown kid, is a token rejection.
func (v *Validator) Validate(ctx context.Context, token string) (string, error) {
	jwks, err := v.keys.KeySet(ctx, v.authority)
	if err != nil {
		return "", err
	}

	kid, err := keyID(token)
	if err != nil {
		return "", err
	}

	jwk, ok := jwks.Find(kid)
	if !ok {
		fresh, refreshed, err := v.keys.Refresh(ctx, v.authority)
		if err != nil {
			// The cached set was usable; the kid is simply not in it.
			v.logger.Warn("key set refresh failed on unknown key id",
				zap.String("kid", kid),
				zap.Error(err))
			return "", fmt.Errorf("%w: %s", ErrUnknownKeyID, kid)
		}
		if refreshed {
			jwk, ok = fresh.Find(kid)
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownKeyID, kid)
		}
		v.logger.Info("key set refreshed for new key id", zap.String("kid", kid))
	}

	key, err := jwk.PublicKey()
	if err != nil {
		return "", fmt.Errorf("%w: key %s unusable: %v", ErrInvalidToken, kid, err)
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods(jwk.ValidMethods()),
		jwt.WithIssuer(v.authority),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenInvalidIssuer),
			errors.Is(err, jwt.ErrTokenRequiredClaimMissing) && claims.Issuer == "":
			return "", fmt.Errorf("%w: got %q", ErrInvalidIssuer, claims.Issuer)
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	return claims.Subject, nil
}

// keyID reads the kid header without verifying the token
func keyID(token string) (string, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	kid, _ := parsed.Header["kid"].(string)
	if kid == "" {
		return "", ErrMissingKeyID
	}
	return kid, nil
}
