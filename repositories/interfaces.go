package repositories

import (
	"context"
	"errors"

	"github.com/poc-rear/wotd-api/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages store transactions
type TransactionManager interface {
	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user. Returns ErrDuplicate when the username is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// WordRepository handles word data operations
type WordRepository interface {
	// Create creates a new word. Returns ErrDuplicate when the word exists.
	Create(ctx context.Context, word *models.Word) error

	// GetByWord retrieves a word by its text
	GetByWord(ctx context.Context, word string) (*models.Word, error)

	// List retrieves all words ordered by creation time
	List(ctx context.Context) ([]*models.Word, error)
}

// QueueRepository handles the word-of-the-day queue
type QueueRepository interface {
	// Enqueue appends an item. Returns ErrDuplicate when the word is already queued.
	Enqueue(ctx context.Context, item *models.QueueItem) error

	// FindByWord retrieves the queued item for a word
	FindByWord(ctx context.Context, word string) (*models.QueueItem, error)

	// Oldest retrieves the item with the earliest added_at
	Oldest(ctx context.Context) (*models.QueueItem, error)

	// PopOldest removes and returns the item with the earliest added_at
	PopOldest(ctx context.Context) (*models.QueueItem, error)
}

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	Words     WordRepository
	Queue     QueueRepository
	TxManager TransactionManager
	Health    HealthChecker
}
