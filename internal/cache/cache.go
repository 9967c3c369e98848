// Package cache provides the synchronous in-memory mirror of a subset of
// the persistent store. Reads never block and never fail; writes update
// the mirror immediately and persist in the background.
package cache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/iconidentify/canary/internal/store"
)

const persistQueueSize = 64

type persistReq struct {
	key   string
	value string
}

// Cache mirrors a whitelist of store keys for synchronous reads during
// render. The in-memory value is the one the running session observes:
// a failed background persist is logged, never rolled back.
type Cache struct {
	store  store.Store
	logger *slog.Logger

	mu     sync.RWMutex
	values map[string]string

	queue   chan persistReq
	pending sync.WaitGroup
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	closeOnce sync.Once
}

// New creates a cache backed by s and starts the background persister.
// Call Hydrate before serving reads and Close on shutdown.
func New(s store.Store, logger *slog.Logger) *Cache {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Cache{
		store:  s,
		logger: logger,
		values: make(map[string]string),
		queue:  make(chan persistReq, persistQueueSize),
		cancel: cancel,
	}

	c.wg.Add(1)
	go c.persister(ctx)

	return c
}

// Hydrate loads the enumerated whitelist of keys from the store.
// Keys absent from the store stay absent from the cache.
func (c *Cache) Hydrate(ctx context.Context) error {
	pairs, err := c.store.MultiGet(ctx, store.CacheKeys())
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, kv := range pairs {
		c.values[kv.Key] = kv.Value
	}
	return nil
}

// GetValue returns the cached value for key. The second return is false
// for unknown keys.
func (c *Cache) GetValue(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[key]
	return value, ok
}

// SetValue updates the in-memory value and enqueues an asynchronous
// write-through to the store. It returns before the value is durable;
// callers that need the durability guarantee follow up with Flush.
func (c *Cache) SetValue(key, value string) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()

	c.pending.Add(1)
	c.queue <- persistReq{key: key, value: value}
}

// Delete removes key from the mirror only. Durable removal goes through
// the store directly (clear flows own the durable key set).
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Flush blocks until every write enqueued before the call has been
// persisted (or rejected), or ctx is done.
func (c *Cache) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and stops the persister.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		c.pending.Wait()
		c.cancel()
		c.wg.Wait()
	})
}

func (c *Cache) persister(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case req := <-c.queue:
			c.persist(req)
		case <-ctx.Done():
			// Drain whatever is already queued before stopping.
			for {
				select {
				case req := <-c.queue:
					c.persist(req)
				default:
					return
				}
			}
		}
	}
}

func (c *Cache) persist(req persistReq) {
	defer c.pending.Done()

	if err := c.store.Set(context.Background(), req.key, req.value); err != nil {
		c.logger.Error("cache write-through failed", "key", req.key, "error", err)
	}
}
