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

// ListLimit is the global cap on the number of lists.
const ListLimit = 30

// ListService manages account lists over the persistent store with the
// same cache-aside mirror discipline as CollectionService.
type ListService struct {
	store  store.Store
	logger *slog.Logger

	mu     sync.Mutex
	mirror map[domain.ListID]*domain.List
}

// NewListService creates a list service with an unpopulated mirror.
func NewListService(s store.Store, logger *slog.Logger) *ListService {
	return &ListService{store: s, logger: logger}
}

func (s *ListService) ensureLoadedLocked(ctx context.Context) error {
	if s.mirror != nil {
		return nil
	}

	raw, found, err := s.store.Get(ctx, store.KeyLists)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	if !found {
		s.mirror = make(map[domain.ListID]*domain.List)
		return nil
	}

	mirror := make(map[domain.ListID]*domain.List)
	if err := json.Unmarshal([]byte(raw), &mirror); err != nil {
		return fmt.Errorf("%w: decode lists: %w", domain.ErrPersistenceFailed, err)
	}
	s.mirror = mirror
	return nil
}

func (s *ListService) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(s.mirror)
	if err != nil {
		return fmt.Errorf("encode lists: %w", err)
	}
	if err := s.store.Set(ctx, store.KeyLists, string(raw)); err != nil {
		s.mirror = nil
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	return nil
}

// Create creates a new list. Creation beyond the global cap is rejected
// with ErrListLimitExceeded without touching the mirror or the store.
// The check runs against the mirror, so it is only as fresh as the last
// populate.
func (s *ListService) Create(ctx context.Context, name string) (*domain.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyListName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	if len(s.mirror) >= ListLimit {
		return nil, domain.ErrListLimitExceeded
	}

	list := &domain.List{
		ID:        domain.ListID(uuid.NewString()),
		Name:      name,
		UserNames: []string{},
	}
	s.mirror[list.ID] = list

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("created list", "id", list.ID, "name", list.Name)
	return list, nil
}

// GetAll returns all lists keyed by id.
func (s *ListService) GetAll(ctx context.Context) (map[domain.ListID]*domain.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	out := make(map[domain.ListID]*domain.List, len(s.mirror))
	for id, l := range s.mirror {
		copied := *l
		out[id] = &copied
	}
	return out, nil
}

// Get returns one list by id.
func (s *ListService) Get(ctx context.Context, id domain.ListID) (*domain.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	l, ok := s.mirror[id]
	if !ok {
		return nil, domain.ErrListNotFound
	}
	copied := *l
	return &copied, nil
}

// Remove deletes a list.
func (s *ListService) Remove(ctx context.Context, id domain.ListID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	if _, ok := s.mirror[id]; !ok {
		return domain.ErrListNotFound
	}
	delete(s.mirror, id)

	if err := s.persistLocked(ctx); err != nil {
		return err
	}

	s.logger.Info("removed list", "id", id)
	return nil
}

// AddUser appends a username to a list. Membership is not de-duplicated
// at this layer: adding the same username twice stores it twice.
func (s *ListService) AddUser(ctx context.Context, id domain.ListID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	l, ok := s.mirror[id]
	if !ok {
		return domain.ErrListNotFound
	}
	l.AddUser(username)

	return s.persistLocked(ctx)
}

// RemoveUser removes the first occurrence of a username from a list.
func (s *ListService) RemoveUser(ctx context.Context, id domain.ListID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	l, ok := s.mirror[id]
	if !ok {
		return domain.ErrListNotFound
	}
	if !l.RemoveUser(username) {
		return domain.ErrUserNotInList
	}

	return s.persistLocked(ctx)
}
