package services

import (
	"context"

	"github.com/poc-rear/wotd-api/models"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockWordRepository is a mock implementation of WordRepository
type MockWordRepository struct {
	mock.Mock
}

func (m *MockWordRepository) Create(ctx context.Context, word *models.Word) error {
	args := m.Called(ctx, word)
	return args.Error(0)
}

func (m *MockWordRepository) GetByWord(ctx context.Context, word string) (*models.Word, error) {
	args := m.Called(ctx, word)
	if w := args.Get(0); w != nil {
		return w.(*models.Word), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWordRepository) List(ctx context.Context) ([]*models.Word, error) {
	args := m.Called(ctx)
	if words := args.Get(0); words != nil {
		return words.([]*models.Word), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockQueueRepository is a mock implementation of QueueRepository
type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) Enqueue(ctx context.Context, item *models.QueueItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockQueueRepository) FindByWord(ctx context.Context, word string) (*models.QueueItem, error) {
	return m.item(m.Called(ctx, word))
}

func (m *MockQueueRepository) Oldest(ctx context.Context) (*models.QueueItem, error) {
	return m.item(m.Called(ctx))
}

func (m *MockQueueRepository) PopOldest(ctx context.Context) (*models.QueueItem, error) {
	return m.item(m.Called(ctx))
}

func (m *MockQueueRepository) item(args mock.Arguments) (*models.QueueItem, error) {
	if item := args.Get(0); item != nil {
		return item.(*models.QueueItem), args.Error(1)
	}
	return nil, args.Error(1)
}

// inlineTx runs the function directly and counts invocations
type inlineTx struct {
	calls int
}

func (tx *inlineTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}
