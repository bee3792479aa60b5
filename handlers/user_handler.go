package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/utils"
	"go.uber.org/zap"
)

// CreateUserRequest represents a registration request
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,username,max=64"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// UserService defines the user operations the handler needs
type UserService interface {
	Register(ctx context.Context, username, password, email string) (*models.Identity, error)
	Get(ctx context.Context, username string) (*models.Identity, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// HandleCreate handles POST /api/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	identity, err := h.users.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, identity)
}

// HandleGet handles GET /api/users/{username}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, err := h.users.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, identity)
}
