package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether the request behind a partition key may proceed
// right now. Implementations own counter storage; the admission side only
// ever sees this interface.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryStore is a token-bucket limiter with one bucket per key and
// periodic eviction of idle buckets.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type memoryEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithIdleTTL sets how long an untouched bucket survives.
func WithIdleTTL(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.idleTTL = d }
}

// WithCleanupEvery sets the eviction interval for the janitor.
func WithCleanupEvery(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.cleanupEvery = d }
}

// NewMemoryStore creates an in-memory limiter allowing rps sustained
// requests per key with the given burst.
func NewMemoryStore(rps float64, burst int, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:      make(map[string]*memoryEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implements Limiter.
func (s *MemoryStore) Allow(_ context.Context, key string) (bool, error) {
	return s.limiter(key).Allow(), nil
}

func (s *MemoryStore) limiter(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &memoryEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup evicts buckets idle longer than the TTL.
func (s *MemoryStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor evicts idle buckets periodically until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
