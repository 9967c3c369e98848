// Package feed provides the cursor-driven pagination engine behind every
// infinite-scroll list, and the concrete data sources feeding it from the
// remote API.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iconidentify/canary/internal/domain"
)

// Page is one fetched page of items. An empty NextCursor means the feed
// is exhausted.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// Source supplies pages for one feed type. FetchPage must be idempotent
// for the same cursor so a failed fetch is safe to retry.
type Source[T any] interface {
	// FetchPage returns the page after cursor. An empty cursor requests
	// the first page.
	FetchPage(ctx context.Context, cursor string) (Page[T], error)

	// Key returns the de-duplication key for an item.
	Key(item T) string
}

// Engine accumulates pages from a Source into a de-duplicated sequence.
//
// Exactly one fetch may be in flight per engine; a call issued while one
// is pending returns domain.ErrFetchInFlight and changes nothing. There
// is no queuing and no cancellation of the in-flight fetch.
type Engine[T any] struct {
	src    Source[T]
	logger *slog.Logger

	mu       sync.Mutex
	items    []T
	index    map[string]int
	cursor   string
	started  bool
	hasMore  bool
	inFlight bool
	lastErr  error
}

// NewEngine creates an engine over src with no pages loaded.
func NewEngine[T any](src Source[T], logger *slog.Logger) *Engine[T] {
	return &Engine[T]{
		src:     src,
		logger:  logger,
		index:   make(map[string]int),
		hasMore: true,
	}
}

// Items returns a snapshot of the accumulated sequence.
func (e *Engine[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]T, len(e.items))
	copy(out, e.items)
	return out
}

// HasMore reports whether another page may exist. It latches false once
// any page returns an empty next cursor.
func (e *Engine[T]) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasMore
}

// Loading reports whether a fetch is currently in flight.
func (e *Engine[T]) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// LastErr returns the error flag from the most recent failed fetch, or
// nil after any successful fetch.
func (e *Engine[T]) LastErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// LoadMore fetches the next page and merges it into the sequence. Once
// the feed is exhausted further calls are no-ops.
func (e *Engine[T]) LoadMore(ctx context.Context) error {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return domain.ErrFetchInFlight
	}
	if e.started && !e.hasMore {
		e.mu.Unlock()
		return nil
	}
	cursor := e.cursor
	e.inFlight = true
	e.mu.Unlock()

	page, err := e.src.FetchPage(ctx, cursor)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false

	if err != nil {
		e.lastErr = fmt.Errorf("%w: %w", domain.ErrNetworkFailed, err)
		e.logger.Warn("page fetch failed", "cursor", cursor, "error", err)
		return e.lastErr
	}

	e.started = true
	e.lastErr = nil
	e.mergeLocked(page.Items)
	e.cursor = page.NextCursor
	if page.NextCursor == "" {
		e.hasMore = false
	}
	return nil
}

// Refresh refetches the first page. The accumulated sequence is replaced
// only after the new page resolves; on failure it is retained and the
// error flag is set for the UI to surface non-destructively.
func (e *Engine[T]) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return domain.ErrFetchInFlight
	}
	e.inFlight = true
	e.mu.Unlock()

	page, err := e.src.FetchPage(ctx, "")

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false

	if err != nil {
		e.lastErr = fmt.Errorf("%w: %w", domain.ErrNetworkFailed, err)
		e.logger.Warn("refresh failed", "error", err)
		return e.lastErr
	}

	e.started = true
	e.lastErr = nil
	e.items = e.items[:0]
	e.index = make(map[string]int)
	e.mergeLocked(page.Items)
	e.cursor = page.NextCursor
	e.hasMore = page.NextCursor != ""
	return nil
}

// mergeLocked folds a page into the sequence. An item whose key was
// already seen updates in place, preserving its original position.
func (e *Engine[T]) mergeLocked(items []T) {
	for _, item := range items {
		key := e.src.Key(item)
		if pos, seen := e.index[key]; seen {
			e.items[pos] = item
			continue
		}
		e.index[key] = len(e.items)
		e.items = append(e.items, item)
	}
}
