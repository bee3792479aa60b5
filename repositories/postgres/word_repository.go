package postgres

import (
	"context"
	"fmt"

	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/repositories"
	"go.uber.org/zap"
)

const wordColumns = `id, created_by_id, word, definition, sentence, created_at, updated_at`

// WordRepository implements the repositories.WordRepository interface
type WordRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewWordRepository creates a new word repository
func NewWordRepository(db *DB, logger *zap.Logger) repositories.WordRepository {
	return &WordRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new word
func (r *WordRepository) Create(ctx context.Context, word *models.Word) error {
	query := `
		INSERT INTO words (` + wordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		word.ID,
		word.CreatedByID,
		word.Word,
		word.Definition,
		word.Sentence,
		word.CreatedAt,
		word.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create word: %w", mapError(err))
	}

	r.logger.Debug("word created", zap.String("id", word.ID), zap.String("word", word.Word))
	return nil
}

// GetByWord retrieves a word by its text
func (r *WordRepository) GetByWord(ctx context.Context, text string) (*models.Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words WHERE word = $1`

	executor := GetExecutor(ctx, r.db)
	word := &models.Word{}
	if err := scanWord(executor.QueryRowContext(ctx, query, text), word); err != nil {
		return nil, fmt.Errorf("failed to get word %q: %w", text, mapError(err))
	}

	return word, nil
}

// List retrieves all words ordered by creation time
func (r *WordRepository) List(ctx context.Context) ([]*models.Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words ORDER BY created_at ASC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer rows.Close()

	words := []*models.Word{}
	for rows.Next() {
		word := &models.Word{}
		if err := scanWord(rows, word); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, word)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating word rows: %w", err)
	}

	return words, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWord(row rowScanner, word *models.Word) error {
	return row.Scan(
		&word.ID,
		&word.CreatedByID,
		&word.Word,
		&word.Definition,
		&word.Sentence,
		&word.CreatedAt,
		&word.UpdatedAt,
	)
}
