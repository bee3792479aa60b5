package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poc-rear/wotd-api/authority"
	"github.com/poc-rear/wotd-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestRequireAuth_SignedTokens runs the gate against a real validator and a local key server
func TestRequireAuth_SignedTokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var hits atomic.Int32
	var jwks *authority.JWKS
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(srv.Close)
	issuer := srv.URL + "/"

	signer := authority.NewSigner(key, "k1", issuer, time.Hour)
	jwks = signer.JWKS()

	logger := zap.NewNop()
	keys := authority.NewCachedKeySource(authority.NewFetcher(time.Second, logger),
		authority.NewMemoryKeySetCache(), authority.CacheOptions{TTL: time.Minute}, logger)
	validator := authority.NewValidator(keys, issuer, logger)

	resolver := new(MockIdentityResolver)
	resolver.On("Resolve", mock.Anything, "alice").Return(alice, nil)

	gate := NewAuthMiddleware(config.AuthConfig{CookieName: "access_token", Authority: issuer}, validator, resolver, logger)

	token, err := signer.Sign("alice")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		w, calls, seen := serve(t, gate, withCookie(token))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "alice", seen.Username)
	}
	assert.Equal(t, int32(1), hits.Load(), "key set is cached across requests")

	t.Run("development token is rejected in production", func(t *testing.T) {
		w, calls, _ := serve(t, gate, withCookie("dev.alice.dev"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Zero(t, calls)
	})

	t.Run("tampered token", func(t *testing.T) {
		w, calls, _ := serve(t, gate, withCookie(token+"x"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Zero(t, calls)
	})
}
