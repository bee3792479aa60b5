package handlers

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/poc-rear/wotd-api/authority"
	"github.com/poc-rear/wotd-api/config"
	"github.com/poc-rear/wotd-api/middleware"
	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/utils"
	"go.uber.org/zap"
)

const (
	// loginCookieMaxAge is the Max-Age of the cookie set on login
	loginCookieMaxAge = 999999

	// invalidatedToken replaces the token on logout
	invalidatedToken = "invalidated"
)

// LoginRequest is accepted as a form or as JSON
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Authenticator checks login credentials
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.Identity, error)
}

// TokenIssuer signs production tokens and publishes the matching key set
type TokenIssuer interface {
	Sign(username string) (string, error)
	JWKS() *authority.JWKS
}

// AuthHandler handles login, logout and the caller's identity
type AuthHandler struct {
	cfg    config.AuthConfig
	users  Authenticator
	issuer TokenIssuer
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. issuer may be nil.
func NewAuthHandler(cfg config.AuthConfig, users Authenticator, issuer TokenIssuer, logger *zap.Logger) *AuthHandler {
	if cfg.CookieName == "" {
		cfg.CookieName = config.DefaultCookieName
	}
	return &AuthHandler{
		cfg:    cfg,
		users:  users,
		issuer: issuer,
		logger: logger,
	}
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	req, err := decodeLogin(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	identity, err := h.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.Info("login rejected",
			zap.String("request_id", requestID),
			zap.String("username", req.Username))
		HandleServiceError(w, err, h.logger)
		return
	}

	token, err := h.issueToken(identity.Username)
	if err != nil {
		h.logger.Error("failed to issue token",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "token issuance not configured")
		return
	}

	w.Header().Add("Set-Cookie", h.cookie(token, loginCookieMaxAge))

	h.logger.Info("user logged in",
		zap.String("request_id", requestID),
		zap.String("user_id", identity.ID))

	_ = utils.WriteOK(w, identity)
}

// HandleLogout handles GET /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Set-Cookie", h.cookie(invalidatedToken, 0))
	_ = utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse{Message: "logged out"})
}

// HandleMe handles GET /auth
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	_ = utils.WriteOK(w, identity)
}

// HandleJWKS handles GET /.well-known/jwks.json when a signing key is configured
func (h *AuthHandler) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		_ = utils.WriteNotFound(w, "")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := utils.WriteJSON(w, http.StatusOK, h.issuer.JWKS()); err != nil {
		h.logger.Error("failed to write key set", zap.Error(err))
	}
}

func (h *AuthHandler) issueToken(username string) (string, error) {
	if h.cfg.DevMode {
		return DevToken(username), nil
	}
	if h.issuer == nil {
		return "", fmt.Errorf("no signing key configured")
	}
	return h.issuer.Sign(username)
}

// cookie renders the auth Set-Cookie value in a fixed attribute order
func (h *AuthHandler) cookie(value string, maxAge int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s; Path=/; HttpOnly; SameSite=Strict; Max-Age=%d", h.cfg.CookieName, value, maxAge)
	if !h.cfg.DevMode {
		b.WriteString("; Secure")
	}
	return b.String()
}

// DevToken builds a development token whose segment 1 is username
func DevToken(username string) string {
	return "dev." + username + ".dev"
}

func decodeLogin(r *http.Request) (*LoginRequest, error) {
	req := &LoginRequest{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := utils.DecodeJSON(r, req); err != nil {
			return nil, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}
