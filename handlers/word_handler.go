package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/poc-rear/wotd-api/middleware"
	"github.com/poc-rear/wotd-api/models"
	"github.com/poc-rear/wotd-api/services"
	"github.com/poc-rear/wotd-api/utils"
	"go.uber.org/zap"
)

// WordRequest represents a new or suggested word
type WordRequest struct {
	Word       string `json:"word" validate:"required,max=128"`
	Definition string `json:"definition" validate:"max=2048"`
	Sentence   string `json:"sentence" validate:"max=2048"`
}

func (r WordRequest) input() services.WordInput {
	return services.WordInput{Word: r.Word, Definition: r.Definition, Sentence: r.Sentence}
}

// WordService defines the word and queue operations the handler needs
type WordService interface {
	List(ctx context.Context) ([]*models.Word, error)
	Get(ctx context.Context, word string) (*models.Word, error)
	Create(ctx context.Context, createdByID string, in services.WordInput) (*models.Word, error)
	Suggest(ctx context.Context, createdByID string, in services.WordInput) (*models.QueueItem, error)
	Current(ctx context.Context) (*models.QueueItem, error)
	Advance(ctx context.Context) (*models.QueueItem, error)
}

// WordHandler handles words and the word of the day
type WordHandler struct {
	words  WordService
	logger *zap.Logger
}

// NewWordHandler creates a new WordHandler
func NewWordHandler(words WordService, logger *zap.Logger) *WordHandler {
	return &WordHandler{
		words:  words,
		logger: logger,
	}
}

// HandleList handles GET /api/words
func (h *WordHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	words, err := h.words.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if words == nil {
		words = []*models.Word{}
	}
	_ = utils.WriteOK(w, words)
}

// HandleGet handles GET /api/words/{word}
func (h *WordHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	word, err := h.words.Get(r.Context(), chi.URLParam(r, "word"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, word)
}

// HandleCreate handles POST /api/words
func (h *WordHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, identity, ok := h.decode(w, r)
	if !ok {
		return
	}

	word, err := h.words.Create(r.Context(), identity.ID, req.input())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, word)
}

// HandleCurrent handles GET /api/wotd
func (h *WordHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	item, err := h.words.Current(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, item)
}

// HandleSuggest handles POST /api/wotd
func (h *WordHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	req, identity, ok := h.decode(w, r)
	if !ok {
		return
	}

	item, err := h.words.Suggest(r.Context(), identity.ID, req.input())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("word suggested",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("username", identity.Username),
		zap.String("word", item.Word.Word))

	_ = utils.WriteCreated(w, item)
}

// HandleAdvance handles PUT /api/wotd
func (h *WordHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	item, err := h.words.Advance(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, item)
}

// decode reads a WordRequest and the caller. It writes the response itself on failure.
func (h *WordHandler) decode(w http.ResponseWriter, r *http.Request) (*WordRequest, *models.Identity, bool) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "")
		return nil, nil, false
	}

	var req WordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return nil, nil, false
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return nil, nil, false
	}
	return &req, identity, true
}
