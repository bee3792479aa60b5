package postgres

import (
	"context"
	"fmt"

	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/repositories"
	"go.uber.org/zap"
)

const queueSelect = `
	SELECT q.id, q.added_at,
	       w.id, w.created_by_id, w.word, w.definition, w.sentence, w.created_at, w.updated_at
	FROM queue_words q
	JOIN words w ON w.id = q.word_id
`

// QueueRepository implements the repositories.QueueRepository interface.
// Rows reference words by id; items are returned with the word joined in.
type QueueRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *DB, logger *zap.Logger) repositories.QueueRepository {
	return &QueueRepository{
		db:     db,
		logger: logger,
	}
}

// Enqueue appends an item to the queue
func (r *QueueRepository) Enqueue(ctx context.Context, item *models.QueueItem) error {
	query := `INSERT INTO queue_words (id, word_id, added_at) VALUES ($1, $2, $3)`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, item.ID, item.Word.ID, item.AddedAt); err != nil {
		return fmt.Errorf("failed to enqueue word: %w", mapError(err))
	}

	r.logger.Debug("word enqueued", zap.String("id", item.ID), zap.String("word", item.Word.Word))
	return nil
}

// FindByWord retrieves the queued item for a word
func (r *QueueRepository) FindByWord(ctx context.Context, text string) (*models.QueueItem, error) {
	query := queueSelect + `WHERE w.word = $1`

	executor := GetExecutor(ctx, r.db)
	item, err := scanQueueItem(executor.QueryRowContext(ctx, query, text))
	if err != nil {
		return nil, fmt.Errorf("failed to find queued word %q: %w", text, mapError(err))
	}
	return item, nil
}

// Oldest retrieves the item with the earliest added_at
func (r *QueueRepository) Oldest(ctx context.Context) (*models.QueueItem, error) {
	query := queueSelect + `ORDER BY q.added_at ASC LIMIT 1`

	executor := GetExecutor(ctx, r.db)
	item, err := scanQueueItem(executor.QueryRowContext(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to get oldest queued word: %w", mapError(err))
	}
	return item, nil
}

// PopOldest removes and returns the item with the earliest added_at in one statement
func (r *QueueRepository) PopOldest(ctx context.Context) (*models.QueueItem, error) {
	query := `
		WITH popped AS (
			DELETE FROM queue_words
			WHERE id = (
				SELECT id FROM queue_words
				ORDER BY added_at ASC
				LIMIT 1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING id, word_id, added_at
		)
		SELECT p.id, p.added_at,
		       w.id, w.created_by_id, w.word, w.definition, w.sentence, w.created_at, w.updated_at
		FROM popped p
		JOIN words w ON w.id = p.word_id
	`

	executor := GetExecutor(ctx, r.db)
	item, err := scanQueueItem(executor.QueryRowContext(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to pop queued word: %w", mapError(err))
	}

	r.logger.Debug("word dequeued", zap.String("id", item.ID), zap.String("word", item.Word.Word))
	return item, nil
}

func scanQueueItem(row rowScanner) (*models.QueueItem, error) {
	item := &models.QueueItem{}
	err := row.Scan(
		&item.ID,
		&item.AddedAt,
		&item.Word.ID,
		&item.Word.CreatedByID,
		&item.Word.Word,
		&item.Word.Definition,
		&item.Word.Sentence,
		&item.Word.CreatedAt,
		&item.Word.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}
