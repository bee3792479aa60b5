package models

import (
	"time"

	"github.com/google/uuid"
)

// Word is a dictionary entry suggested by a user
type Word struct {
	ID          string    `json:"id" bson:"_id" db:"id"`
	CreatedByID string    `json:"created_by_id" bson:"created_by_id" db:"created_by_id"`
	Word        string    `json:"word" bson:"word" db:"word"`
	Definition  string    `json:"definition" bson:"definition" db:"definition"`
	Sentence    string    `json:"sentence" bson:"sentence" db:"sentence"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Word model
func (Word) TableName() string {
	return "words"
}

// NewWord creates a new Word owned by createdByID
func NewWord(createdByID, word, definition, sentence string) *Word {
	now := time.Now().UTC()
	return &Word{
		ID:          uuid.NewString(),
		CreatedByID: createdByID,
		Word:        word,
		Definition:  definition,
		Sentence:    sentence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// QueueItem is a word waiting to become the word of the day.
// The oldest AddedAt is the current word of the day.
type QueueItem struct {
	ID      string    `json:"id" bson:"_id" db:"id"`
	Word    Word      `json:"word" bson:"word"`
	AddedAt time.Time `json:"added_at" bson:"added_at" db:"added_at"`
}

// TableName returns the table name for the QueueItem model
func (QueueItem) TableName() string {
	return "queue_words"
}

// NewQueueItem enqueues a copy of word
func NewQueueItem(word Word) *QueueItem {
	return &QueueItem{
		ID:      uuid.NewString(),
		Word:    word,
		AddedAt: time.Now().UTC(),
	}
}
