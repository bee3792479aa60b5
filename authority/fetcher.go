package authority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrKeySetUnavailable is returned when the authority's key set cannot be obtained
var ErrKeySetUnavailable = errors.New("key set unavailable")

const (
	jwksPath = ".well-known/jwks.json"

	// maxKeySetBytes bounds the key set response body
	maxKeySetBytes = 1 << 20
)

// JWKSURL derives the key set location from an authority URL
func JWKSURL(authority string) (string, error) {
	u, err := url.Parse(authority)
	if err != nil {
		return "", fmt.Errorf("invalid authority %q: %w", authority, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", fmt.Errorf("invalid authority %q: must be an absolute http(s) URL", authority)
	}

	base := authority
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + jwksPath, nil
}

// Fetcher downloads key sets over HTTP
type Fetcher struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFetcher creates a fetcher whose requests are bounded by timeout
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch retrieves and parses <authority>/.well-known/jwks.json.
// Every failure wraps ErrKeySetUnavailable; an empty set is never returned.
func (f *Fetcher) Fetch(ctx context.Context, authority string) (*JWKS, error) {
	jwksURL, err := JWKSURL(authority)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrKeySetUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status code %d", ErrKeySetUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", ErrKeySetUnavailable, err)
	}
	if len(body) > maxKeySetBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrKeySetUnavailable, maxKeySetBytes)
	}

	var jwks JWKS
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("%w: failed to decode JWKS: %v", ErrKeySetUnavailable, err)
	}
	if len(jwks.Keys) == 0 {
		return nil, fmt.Errorf("%w: no keys published", ErrKeySetUnavailable)
	}

	f.logger.Debug("key set fetched",
		zap.String("url", jwksURL),
		zap.Int("keys", len(jwks.Keys)),
		zap.Duration("duration", time.Since(start)))

	return &jwks, nil
}
