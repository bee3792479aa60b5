package authority

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestValidator(t *testing.T, ks *keyServer, opts CacheOptions) *Validator {
	t.Helper()
	src := NewCachedKeySource(NewFetcher(time.Second, zap.NewNop()), NewMemoryKeySetCache(), opts, zap.NewNop())
	return NewValidator(src, ks.authority(), zap.NewNop())
}

func TestValidator_Validate(t *testing.T) {
	ctx := context.Background()
	rsaKey := newRSAKey(t)
	ecKey := newECKey(t)
	otherKey := newRSAKey(t)

	ks := newKeyServer(t, &JWKS{Keys: []JWK{
		NewRSAJWK("rsa-1", &rsaKey.PublicKey),
		NewECJWK("ec-1", &ecKey.PublicKey),
	}})
	issuer := ks.authority()

	expired := claimsFor(issuer, "alice")
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	noSubject := claimsFor(issuer, "")
	delete(noSubject, "sub")

	noIssuer := claimsFor(issuer, "alice")
	delete(noIssuer, "iss")

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr error
	}{
		{
			name:  "valid RS256",
			token: signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claimsFor(issuer, "alice")),
			want:  "alice",
		},
		{
			name:  "valid ES256",
			token: signToken(t, jwt.SigningMethodES256, ecKey, "ec-1", claimsFor(issuer, "bob")),
			want:  "bob",
		},
		{
			name:    "garbage token",
			token:   "not-a-jwt",
			wantErr: ErrMalformedToken,
		},
		{
			name:    "dev style token",
			token:   "dev.alice.dev",
			wantErr: ErrMalformedToken,
		},
		{
			name:    "missing kid",
			token:   signToken(t, jwt.SigningMethodRS256, rsaKey, "", claimsFor(issuer, "alice")),
			wantErr: ErrMissingKeyID,
		},
		{
			name:    "unknown kid",
			token:   signToken(t, jwt.SigningMethodRS256, rsaKey, "nope", claimsFor(issuer, "alice")),
			wantErr: ErrUnknownKeyID,
		},
		{
			name:    "signed by a different key",
			token:   signToken(t, jwt.SigningMethodRS256, otherKey, "rsa-1", claimsFor(issuer, "alice")),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "algorithm does not match key type",
			token:   signToken(t, jwt.SigningMethodHS256, []byte("secret"), "rsa-1", claimsFor(issuer, "alice")),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong issuer",
			token:   signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claimsFor("https://evil.example.com/", "alice")),
			wantErr: ErrInvalidIssuer,
		},
		{
			name:    "issuer without trailing slash is a different issuer",
			token:   signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claimsFor(ks.URL, "alice")),
			wantErr: ErrInvalidIssuer,
		},
		{
			name:    "missing issuer",
			token:   signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", noIssuer),
			wantErr: ErrInvalidIssuer,
		},
		{
			name:    "missing subject",
			token:   signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", noSubject),
			wantErr: ErrMissingSubject,
		},
		{
			name:    "expired",
			token:   signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", expired),
			wantErr: ErrTokenExpired,
		},
	}

	validator := newTestValidator(t, ks, CacheOptions{TTL: time.Minute})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := validator.Validate(ctx, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NotErrorIs(t, err, ErrKeySetUnavailable)
				assert.Empty(t, subject)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, subject)
		})
	}
}

func TestValidator_KeySetFailures(t *testing.T) {
	ctx := context.Background()
	key := newRSAKey(t)

	t.Run("fetch failure is reported before token parsing", func(t *testing.T) {
		ks := newKeyServer(t, &JWKS{})
		ks.setBody([]byte("oops"), 503)
		validator := newTestValidator(t, ks, CacheOptions{TTL: time.Minute})

		_, err := validator.Validate(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrKeySetUnavailable)
	})

	t.Run("empty key set", func(t *testing.T) {
		ks := newKeyServer(t, &JWKS{Keys: []JWK{}})
		validator := newTestValidator(t, ks, CacheOptions{TTL: time.Minute})

		token := signToken(t, jwt.SigningMethodRS256, key, "k1", claimsFor(ks.authority(), "alice"))
		_, err := validator.Validate(ctx, token)
		assert.ErrorIs(t, err, ErrKeySetUnavailable)
	})
}

func TestValidator_KeyRotation(t *testing.T) {
	ctx := context.Background()
	oldKey := newRSAKey(t)
	newKey := newRSAKey(t)

	ks := newKeyServer(t, &JWKS{Keys: []JWK{NewRSAJWK("old", &oldKey.PublicKey)}})
	validator := newTestValidator(t, ks, CacheOptions{TTL: time.Hour})
	issuer := ks.authority()

	_, err := validator.Validate(ctx, signToken(t, jwt.SigningMethodRS256, oldKey, "old", claimsFor(issuer, "alice")))
	require.NoError(t, err)
	assert.Equal(t, int32(1), ks.hits.Load())

	ks.setKeys(t, &JWKS{Keys: []JWK{
		NewRSAJWK("old", &oldKey.PublicKey),
		NewRSAJWK("new", &newKey.PublicKey),
	}})

	subject, err := validator.Validate(ctx, signToken(t, jwt.SigningMethodRS256, newKey, "new", claimsFor(issuer, "bob")))
	require.NoError(t, err)
	assert.Equal(t, "bob", subject)
	assert.Equal(t, int32(2), ks.hits.Load(), "kid miss triggers exactly one refresh")

	_, err = validator.Validate(ctx, signToken(t, jwt.SigningMethodRS256, newKey, "new", claimsFor(issuer, "bob")))
	require.NoError(t, err)
	assert.Equal(t, int32(2), ks.hits.Load(), "refreshed set is cached")
}

func TestValidator_UnknownKidDuringAuthorityOutage(t *testing.T) {
	ctx := context.Background()
	key := newRSAKey(t)

	ks := newKeyServer(t, &JWKS{Keys: []JWK{NewRSAJWK("k1", &key.PublicKey)}})
	validator := newTestValidator(t, ks, CacheOptions{TTL: time.Hour})
	issuer := ks.authority()

	_, err := validator.Validate(ctx, signToken(t, jwt.SigningMethodRS256, key, "k1", claimsFor(issuer, "alice")))
	require.NoError(t, err)

	ks.setBody([]byte("down"), 503)

	_, err = validator.Validate(ctx, signToken(t, jwt.SigningMethodRS256, key, "random", claimsFor(issuer, "alice")))
	assert.ErrorIs(t, err, ErrUnknownKeyID)
	assert.NotErrorIs(t, err, ErrKeySetUnavailable)
	assert.Equal(t, int32(2), ks.hits.Load())

	subject, err := validator.Validate(ctx, signToken(t, jwt.SigningMethodRS256, key, "k1", claimsFor(issuer, "bob")))
	require.NoError(t, err, "cached set still serves known keys")
	assert.Equal(t, "bob", subject)
}

func TestValidator_UnknownKidRefreshIsRateLimited(t *testing.T) {
	ctx := context.Background()
	key := newRSAKey(t)

	ks := newKeyServer(t, &JWKS{Keys: []JWK{NewRSAJWK("k1", &key.PublicKey)}})
	validator := newTestValidator(t, ks, CacheOptions{TTL: time.Hour, MinRefresh: time.Hour})
	issuer := ks.authority()

	for i := 0; i < 5; i++ {
		_, err := validator.Validate(ctx, signToken(t, jwt.SigningMethodRS256, key, "random", claimsFor(issuer, "alice")))
		assert.ErrorIs(t, err, ErrUnknownKeyID)
	}
	assert.Equal(t, int32(1), ks.hits.Load())
}
