package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/poc-rear/wotd-api/authority"
	"github.com/poc-rear/wotd-api/middleware"
	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/services"
	"github.com/stretchr/testify/mock"
)

// MockAuthenticator is a mock implementation of Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	args := m.Called(ctx, username, password)
	if identity := args.Get(0); identity != nil {
		return identity.(*models.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, username, password, email string) (*models.Identity, error) {
	args := m.Called(ctx, username, password, email)
	if identity := args.Get(0); identity != nil {
		return identity.(*models.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, username string) (*models.Identity, error) {
	args := m.Called(ctx, username)
	if identity := args.Get(0); identity != nil {
		return identity.(*models.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockWordService is a mock implementation of WordService
type MockWordService struct {
	mock.Mock
}

func (m *MockWordService) List(ctx context.Context) ([]*models.Word, error) {
	args := m.Called(ctx)
	if words := args.Get(0); words != nil {
		return words.([]*models.Word), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWordService) Get(ctx context.Context, word string) (*models.Word, error) {
	args := m.Called(ctx, word)
	if w := args.Get(0); w != nil {
		return w.(*models.Word), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWordService) Create(ctx context.Context, createdByID string, in services.WordInput) (*models.Word, error) {
	args := m.Called(ctx, createdByID, in)
	if w := args.Get(0); w != nil {
		return w.(*models.Word), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWordService) Suggest(ctx context.Context, createdByID string, in services.WordInput) (*models.QueueItem, error) {
	return m.item(m.Called(ctx, createdByID, in))
}

func (m *MockWordService) Current(ctx context.Context) (*models.QueueItem, error) {
	return m.item(m.Called(ctx))
}

func (m *MockWordService) Advance(ctx context.Context) (*models.QueueItem, error) {
	return m.item(m.Called(ctx))
}

func (m *MockWordService) item(args mock.Arguments) (*models.QueueItem, error) {
	if item := args.Get(0); item != nil {
		return item.(*models.QueueItem), args.Error(1)
	}
	return nil, args.Error(1)
}

// stubIssuer signs tokens as "signed-<username>"
type stubIssuer struct {
	err error
}

func (s *stubIssuer) Sign(username string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "signed-" + username, nil
}

func (s *stubIssuer) JWKS() *authority.JWKS {
	return &authority.JWKS{Keys: []authority.JWK{{Kid: "k1", Kty: "RSA"}}}
}

var testIdentity = &models.Identity{ID: "user-1", Username: "alice"}

// asCaller attaches the test identity as the gate would
func asCaller(r *http.Request) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), testIdentity))
}

// withURLParam sets a chi route parameter on the request
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
