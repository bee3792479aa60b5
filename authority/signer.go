package authority

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signer issues RS256 tokens so the service can act as its own authority
type Signer struct {
	key    *rsa.PrivateKey
	kid    string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer for issuer using key
func NewSigner(key *rsa.PrivateKey, kid, issuer string, ttl time.Duration) *Signer {
	return &Signer{
		key:    key,
		kid:    kid,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// LoadSigner reads a PEM encoded RSA private key (PKCS#1 or PKCS#8)
func LoadSigner(path, kid, issuer string, ttl time.Duration) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}

	return NewSigner(key, kid, issuer, ttl), nil
}

// Sign issues a token whose subject is username
func (s *Signer) Sign(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.kid

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// JWKS returns the key set verifying tokens from this signer
func (s *Signer) JWKS() *JWKS {
	return &JWKS{Keys: []JWK{NewRSAJWK(s.kid, &s.key.PublicKey)}}
}
