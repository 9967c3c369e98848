package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/canary/internal/domain"
	"github.com/iconidentify/canary/internal/service"
)

// CollectionHandler handles bookmark collection HTTP requests.
type CollectionHandler struct {
	svc    *service.CollectionService
	logger *slog.Logger
}

// NewCollectionHandler creates a new collection handler.
func NewCollectionHandler(svc *service.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{
		svc:    svc,
		logger: logger,
	}
}

// CreateCollectionRequest is the JSON request body for collection creation.
type CreateCollectionRequest struct {
	Name string `json:"name"`
}

// CollectionResponse represents a collection in API responses.
type CollectionResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ColorScheme string   `json:"color_scheme"`
	TweetIDs    []string `json:"tweet_ids"`
	TweetCount  int      `json:"tweet_count"`
}

func toCollectionResponse(c *domain.Collection) CollectionResponse {
	ids := c.TweetIDs
	if ids == nil {
		ids = []string{}
	}
	return CollectionResponse{
		ID:          string(c.ID),
		Name:        c.Name,
		ColorScheme: string(c.ColorScheme),
		TweetIDs:    ids,
		TweetCount:  len(c.TweetIDs),
	}
}

// List returns all collections.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	collections, err := h.svc.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list collections", "error", err)
		http.Error(w, "Failed to list collections", http.StatusInternalServerError)
		return
	}

	response := make([]CollectionResponse, 0, len(collections))
	for _, c := range collections {
		response = append(response, toCollectionResponse(c))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Create creates a new collection.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	collection, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCollectionName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create collection", "error", err)
		http.Error(w, "Failed to create collection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCollectionResponse(collection))
}

// Get retrieves a single collection.
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing collection ID", http.StatusBadRequest)
		return
	}

	collection, err := h.svc.Get(r.Context(), domain.CollectionID(id))
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get collection", "id", id, "error", err)
		http.Error(w, "Failed to get collection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCollectionResponse(collection))
}

// Delete removes a collection.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing collection ID", http.StatusBadRequest)
		return
	}

	err := h.svc.Remove(r.Context(), domain.CollectionID(id))
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete collection", "id", id, "error", err)
		http.Error(w, "Failed to delete collection", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddTweetRequest is the JSON request body for adding a tweet to a collection.
type AddTweetRequest struct {
	TweetID string `json:"tweet_id"`
}

// AddTweet adds a tweet to a collection. Re-adding an existing tweet
// succeeds without changing the collection.
func (h *CollectionHandler) AddTweet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing collection ID", http.StatusBadRequest)
		return
	}

	var req AddTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TweetID == "" {
		http.Error(w, "Missing tweet_id", http.StatusBadRequest)
		return
	}

	err := h.svc.AddTweet(r.Context(), domain.CollectionID(id), req.TweetID)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to add tweet to collection", "id", id, "tweet_id", req.TweetID, "error", err)
		http.Error(w, "Failed to add tweet to collection", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveTweet removes a tweet from a collection.
func (h *CollectionHandler) RemoveTweet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tweetID := chi.URLParam(r, "tweetID")

	if id == "" {
		http.Error(w, "Missing collection ID", http.StatusBadRequest)
		return
	}
	if tweetID == "" {
		http.Error(w, "Missing tweet ID", http.StatusBadRequest)
		return
	}

	err := h.svc.RemoveTweet(r.Context(), domain.CollectionID(id), tweetID)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to remove tweet from collection", "id", id, "tweet_id", tweetID, "error", err)
		http.Error(w, "Failed to remove tweet from collection", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveTweetFromAll removes a tweet from every collection, the
// un-bookmark operation.
func (h *CollectionHandler) RemoveTweetFromAll(w http.ResponseWriter, r *http.Request) {
	tweetID := chi.URLParam(r, "tweetID")
	if tweetID == "" {
		http.Error(w, "Missing tweet ID", http.StatusBadRequest)
		return
	}

	if err := h.svc.RemoveTweetFromAll(r.Context(), tweetID); err != nil {
		h.logger.Error("failed to remove tweet from all collections", "tweet_id", tweetID, "error", err)
		http.Error(w, "Failed to remove tweet", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BookmarkStatusResponse reports whether a tweet belongs to any collection.
type BookmarkStatusResponse struct {
	TweetID    string `json:"tweet_id"`
	Bookmarked bool   `json:"bookmarked"`
}

// BookmarkStatus reports whether a tweet is a member of any collection.
// The status is always derived by scanning, never cached.
func (h *CollectionHandler) BookmarkStatus(w http.ResponseWriter, r *http.Request) {
	tweetID := chi.URLParam(r, "tweetID")
	if tweetID == "" {
		http.Error(w, "Missing tweet ID", http.StatusBadRequest)
		return
	}

	bookmarked, err := h.svc.IsTweetBookmarked(r.Context(), tweetID)
	if err != nil {
		h.logger.Error("failed to check bookmark status", "tweet_id", tweetID, "error", err)
		http.Error(w, "Failed to check bookmark status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BookmarkStatusResponse{TweetID: tweetID, Bookmarked: bookmarked})
}
