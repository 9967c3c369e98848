package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/iconidentify/canary/internal/domain"
	"github.com/iconidentify/canary/internal/store"
)

// CollectionService manages bookmark collections over the persistent
// store with an in-memory mirror.
//
// The mirror is nil until the first operation populates it from the
// store; every path goes through ensureLoaded first. The mirror is a
// rebuildable cache, never authoritative: when a write-back fails it is
// discarded so the next operation repopulates from the store.
type CollectionService struct {
	store  store.Store
	logger *slog.Logger

	mu     sync.Mutex
	mirror map[domain.CollectionID]*domain.Collection
}

// NewCollectionService creates a collection service. The mirror stays
// unpopulated until first use.
func NewCollectionService(s store.Store, logger *slog.Logger) *CollectionService {
	return &CollectionService{store: s, logger: logger}
}

// ensureLoadedLocked populates the mirror from the store if needed.
// An absent key is the valid empty state.
func (s *CollectionService) ensureLoadedLocked(ctx context.Context) error {
	if s.mirror != nil {
		return nil
	}

	raw, found, err := s.store.Get(ctx, store.KeyCollections)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	if !found {
		s.mirror = make(map[domain.CollectionID]*domain.Collection)
		return nil
	}

	mirror := make(map[domain.CollectionID]*domain.Collection)
	if err := json.Unmarshal([]byte(raw), &mirror); err != nil {
		return fmt.Errorf("%w: decode collections: %w", domain.ErrPersistenceFailed, err)
	}
	s.mirror = mirror
	return nil
}

// persistLocked writes the whole mirror back under one key. On failure
// the mirror is dropped as stale.
func (s *CollectionService) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(s.mirror)
	if err != nil {
		return fmt.Errorf("encode collections: %w", err)
	}
	if err := s.store.Set(ctx, store.KeyCollections, string(raw)); err != nil {
		s.mirror = nil
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	return nil
}

// Create creates a new collection with the next palette color.
func (s *CollectionService) Create(ctx context.Context, name string) (*domain.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyCollectionName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	collection := &domain.Collection{
		ID:          domain.CollectionID(uuid.NewString()),
		Name:        name,
		ColorScheme: domain.ColorSchemes[len(s.mirror)%len(domain.ColorSchemes)],
		TweetIDs:    []string{},
	}
	s.mirror[collection.ID] = collection

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("created collection", "id", collection.ID, "name", collection.Name)
	return collection, nil
}

// GetAll returns all collections keyed by id.
func (s *CollectionService) GetAll(ctx context.Context) (map[domain.CollectionID]*domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	out := make(map[domain.CollectionID]*domain.Collection, len(s.mirror))
	for id, c := range s.mirror {
		copied := *c
		out[id] = &copied
	}
	return out, nil
}

// Get returns one collection by id.
func (s *CollectionService) Get(ctx context.Context, id domain.CollectionID) (*domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	c, ok := s.mirror[id]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	copied := *c
	return &copied, nil
}

// Remove deletes a collection. Bookmark status is derived by scanning,
// so removal is immediately visible to IsTweetBookmarked.
func (s *CollectionService) Remove(ctx context.Context, id domain.CollectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	if _, ok := s.mirror[id]; !ok {
		return domain.ErrCollectionNotFound
	}
	delete(s.mirror, id)

	if err := s.persistLocked(ctx); err != nil {
		return err
	}

	s.logger.Info("removed collection", "id", id)
	return nil
}

// AddTweet bookmarks a tweet into a collection. Adding a tweet that is
// already present is a no-op success.
func (s *CollectionService) AddTweet(ctx context.Context, id domain.CollectionID, tweetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	c, ok := s.mirror[id]
	if !ok {
		return domain.ErrCollectionNotFound
	}
	if !c.AddTweet(tweetID) {
		s.logger.Debug("tweet already in collection", "collection_id", id, "tweet_id", tweetID)
		return nil
	}

	return s.persistLocked(ctx)
}

// RemoveTweet removes a tweet from a collection. The collection itself
// stays until explicitly removed, even when it becomes empty.
func (s *CollectionService) RemoveTweet(ctx context.Context, id domain.CollectionID, tweetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	c, ok := s.mirror[id]
	if !ok {
		return domain.ErrCollectionNotFound
	}
	if !c.RemoveTweet(tweetID) {
		return nil
	}

	return s.persistLocked(ctx)
}

// RemoveTweetFromAll removes a tweet from every collection containing it.
func (s *CollectionService) RemoveTweetFromAll(ctx context.Context, tweetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	changed := false
	for _, c := range s.mirror {
		if c.RemoveTweet(tweetID) {
			changed = true
		}
	}
	if !changed {
		return nil
	}

	return s.persistLocked(ctx)
}

// IsTweetBookmarked reports whether any collection contains the tweet.
// Computed by scanning, never cached redundantly.
func (s *CollectionService) IsTweetBookmarked(ctx context.Context, tweetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return false, err
	}

	for _, c := range s.mirror {
		if c.HasTweet(tweetID) {
			return true, nil
		}
	}
	return false, nil
}
