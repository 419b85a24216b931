package protocol

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes backend lookups per pause. Concurrent requests for the same key
// share one backend call. Failed lookups are not cached so they can be retried.
// A Cache lives as long as its backend: a reloaded recording gets a new one.
type Cache struct {
	backend Backend

	group singleflight.Group

	mu       sync.RWMutex
	scopes   map[string][]Scope
	results  map[string]EvalResult
	previews map[string][]string
}

// NewCache wraps a backend with a lookup cache.
func NewCache(backend Backend) *Cache {
	return &Cache{
		backend:  backend,
		scopes:   make(map[string][]Scope),
		results:  make(map[string]EvalResult),
		previews: make(map[string][]string),
	}
}

// GetFrameScopes implements ScopeResolver.
func (c *Cache) GetFrameScopes(ctx context.Context, pause PauseID, frame FrameID) ([]Scope, error) {
	key := fmt.Sprintf("scopes\x00%s\x00%s", pause, frame)
	return lookup(c, ctx, key, c.scopes, func(ctx context.Context) ([]Scope, error) {
		return c.backend.GetFrameScopes(ctx, pause, frame)
	})
}

// Evaluate implements Evaluator.
func (c *Cache) Evaluate(ctx context.Context, pause PauseID, frame FrameID, expr string) (EvalResult, error) {
	key := fmt.Sprintf("eval\x00%s\x00%s\x00%s", pause, frame, expr)
	return lookup(c, ctx, key, c.results, func(ctx context.Context) (EvalResult, error) {
		return c.backend.Evaluate(ctx, pause, frame, expr)
	})
}

// GetPropertiesPreview implements PreviewProvider.
func (c *Cache) GetPropertiesPreview(ctx context.Context, pause PauseID, object ObjectID, bounded bool) ([]string, error) {
	key := fmt.Sprintf("preview\x00%s\x00%s\x00%t", pause, object, bounded)
	return lookup(c, ctx, key, c.previews, func(ctx context.Context) ([]string, error) {
		return c.backend.GetPropertiesPreview(ctx, pause, object, bounded)
	})
}

func lookup[T any](c *Cache, ctx context.Context, key string, store map[string]T, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.RLock()
	if v, ok := store[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		fetched, err := fetch(ctx)
		if err != nil {
			return fetched, err
		}
		c.mu.Lock()
		store[key] = fetched
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
