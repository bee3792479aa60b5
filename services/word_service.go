package services

import (
	"context"
	"errors"
	"strings"

	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/repositories"
	"go.uber.org/zap"
)

// WordInput carries the fields of a new or suggested word
type WordInput struct {
	Word       string
	Definition string
	Sentence   string
}

// WordService manages words and the word-of-the-day queue
type WordService struct {
	words  repositories.WordRepository
	queue  repositories.QueueRepository
	tx     repositories.TransactionManager
	logger *zap.Logger
}

// NewWordService creates a new WordService
func NewWordService(repos *repositories.Repositories, logger *zap.Logger) *WordService {
	return &WordService{
		words:  repos.Words,
		queue:  repos.Queue,
		tx:     repos.TxManager,
		logger: logger,
	}
}

// List returns every stored word, oldest first
func (s *WordService) List(ctx context.Context) ([]*models.Word, error) {
	words, err := s.words.List(ctx)
	if err != nil {
		return nil, WrapInternal("failed to list words", err)
	}
	return words, nil
}

// Get returns a single word
func (s *WordService) Get(ctx context.Context, word string) (*models.Word, error) {
	found, err := s.words.GetByWord(ctx, word)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWordNotFound.WithDetail("word", word)
		}
		return nil, WrapInternal("failed to load word", err)
	}
	return found, nil
}

// Create stores a new word authored by createdByID
func (s *WordService) Create(ctx context.Context, createdByID string, in WordInput) (*models.Word, error) {
	in = normalize(in)
	if in.Word == "" {
		return nil, ErrInvalidInput.WithDetail("word", "word is required")
	}

	word := models.NewWord(createdByID, in.Word, in.Definition, in.Sentence)
	if err := s.words.Create(ctx, word); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateWord.WithDetail("word", in.Word)
		}
		return nil, WrapInternal("failed to create word", err)
	}
	return word, nil
}

// Suggest queues a word for a future word of the day.
// A word that is already queued is rejected; a stored word is reused as is.
func (s *WordService) Suggest(ctx context.Context, createdByID string, in WordInput) (*models.QueueItem, error) {
	in = normalize(in)
	if in.Word == "" {
		return nil, ErrInvalidInput.WithDetail("word", "word is required")
	}

	var item *models.QueueItem
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		_, err := s.queue.FindByWord(ctx, in.Word)
		switch {
		case err == nil:
			return ErrAlreadyQueued.WithDetail("word", in.Word)
		case !errors.Is(err, repositories.ErrNotFound):
			return WrapInternal("failed to check queue", err)
		}

		word, err := s.storedOrNewWord(ctx, createdByID, in)
		if err != nil {
			return WrapInternal("failed to store word", err)
		}

		item = models.NewQueueItem(*word)
		if err := s.queue.Enqueue(ctx, item); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrAlreadyQueued.WithDetail("word", in.Word)
			}
			return WrapInternal("failed to enqueue word", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("word suggested",
		zap.String("word", item.Word.Word),
		zap.String("queue_id", item.ID))

	return item, nil
}

// storedOrNewWord returns the stored word, creating it when absent.
// A concurrent insert of the same word is read back instead of failing.
func (s *WordService) storedOrNewWord(ctx context.Context, createdByID string, in WordInput) (*models.Word, error) {
	word, err := s.words.GetByWord(ctx, in.Word)
	if !errors.Is(err, repositories.ErrNotFound) {
		return word, err
	}

	word = models.NewWord(createdByID, in.Word, in.Definition, in.Sentence)
	err = s.words.Create(ctx, word)
	if errors.Is(err, repositories.ErrDuplicate) {
		s.logger.Debug("word created concurrently, reusing it", zap.String("word", in.Word))
		return s.words.GetByWord(ctx, in.Word)
	}
	if err != nil {
		return nil, err
	}
	return word, nil
}

// Current returns the word of the day, the oldest queued item
func (s *WordService) Current(ctx context.Context) (*models.QueueItem, error) {
	item, err := s.queue.Oldest(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrQueueEmpty
		}
		return nil, WrapInternal("failed to load word of the day", err)
	}
	return item, nil
}

// Advance removes the current word of the day and returns it
func (s *WordService) Advance(ctx context.Context) (*models.QueueItem, error) {
	item, err := s.queue.PopOldest(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrQueueEmpty
		}
		return nil, WrapInternal("failed to advance word of the day", err)
	}

	s.logger.Info("word of the day advanced", zap.String("word", item.Word.Word))
	return item, nil
}

func normalize(in WordInput) WordInput {
	in.Word = strings.TrimSpace(in.Word)
	in.Definition = strings.TrimSpace(in.Definition)
	in.Sentence = strings.TrimSpace(in.Sentence)
	return in
}
