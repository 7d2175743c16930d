package cache

import (
	"log/slog"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// DeletePrefix drops every key under a prefix, e.g. all of one user's entries.
	DeletePrefix(prefix string) int
	Size() int
}

// Observer receives hit and miss counts; *metrics.Metrics satisfies it.
type Observer interface {
	IncCacheHit(cache string)
	IncCacheMiss(cache string)
}

// Instrumented reports lookups on an inner cache to an Observer.
type Instrumented[T any] struct {
	Cache[T]
	name     string
	observer Observer
}

func NewInstrumented[T any](name string, inner Cache[T], observer Observer) *Instrumented[T] {
	return &Instrumented[T]{Cache: inner, name: name, observer: observer}
}

func (c *Instrumented[T]) Get(key string) (T, bool) {
	v, ok := c.Cache.Get(key)
	if c.observer != nil {
		if ok {
			c.observer.IncCacheHit(c.name)
		} else {
			c.observer.IncCacheMiss(c.name)
		}
	}
	return v, ok
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

type Cleaner interface {
	CleanExpired() int
}

func NewManager() *Manager {
	return &Manager{
		caches:      make([]Cleaner, 0),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			totalCleaned := 0
			for _, cache := range m.caches {
				totalCleaned += cache.CleanExpired()
			}
			if totalCleaned > 0 {
				slog.Debug("Cleaned expired cache entries", "component", "cache", "removed", totalCleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop halts the cleanup routine; it is a no-op when cleanup never started.
func (m *Manager) Stop() {
	if !m.started {
		return
	}
	m.started = false
	close(m.stopCleanup)
	<-m.cleanupDone
}
