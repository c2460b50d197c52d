package nonce

import (
	"context"
	"sync"
	"time"
)

// MemoryStore defaults.
const (
	DefaultCapacity      = 10000
	DefaultSweepInterval = time.Minute
)

// MemoryStore is an in-process replay ledger. It is capacity-bounded: at
// capacity, inserting a new nonce evicts exactly one entry, the
// insertion-order-oldest live one (FIFO, not LRU). A periodic sweep removes
// expired entries; the sweep runs on an explicit Start/Stop lifecycle so
// tests can drive time deterministically.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	queue   []string

	capacity int
	interval time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCapacity bounds the number of live nonce records.
func WithCapacity(capacity int) MemoryStoreOption {
	return func(s *MemoryStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithSweepInterval sets how often the background sweep runs.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithNow replaces the store's time source for deterministic tests.
func WithNow(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates a bounded in-memory nonce store. The background
// sweep does not run until Start is called; TryStoreNonce is fully
// functional without it because expired entries are also ignored on read.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries:  make(map[string]time.Time),
		capacity: DefaultCapacity,
		interval: DefaultSweepInterval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TryStoreNonce atomically checks and records the nonce. It returns true
// only if no unexpired record exists for the composite key.
func (s *MemoryStore) TryStoreNonce(ctx context.Context, signerDID, domain, nonce string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := compositeKey(signerDID, domain, nonce)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiresAt, ok := s.entries[key]; ok {
		if now.Before(expiresAt) {
			return false, nil
		}
		// Expired record for the same tuple: reuse its slot and move it to
		// the back of the queue so the renewed record is not the next
		// eviction victim.
		s.entries[key] = now.Add(ttl)
		s.requeueLocked(key)
		return true, nil
	}

	if len(s.entries) >= s.capacity {
		s.evictOldestLocked()
	}

	s.entries[key] = now.Add(ttl)
	s.queue = append(s.queue, key)
	return true, nil
}

// requeueLocked moves a key's queue position to the back.
func (s *MemoryStore) requeueLocked(key string) {
	for i, k := range s.queue {
		if k == key {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	s.queue = append(s.queue, key)
}

// evictOldestLocked removes exactly one live entry, the oldest by insertion
// order. Queue positions whose entries were already swept are skipped.
func (s *MemoryStore) evictOldestLocked() {
	for len(s.queue) > 0 {
		oldest := s.queue[0]
		s.queue = s.queue[1:]
		if _, ok := s.entries[oldest]; ok {
			delete(s.entries, oldest)
			return
		}
	}
}

// Sweep removes every expired entry. It is idempotent and safe to call
// concurrently with reads and writes.
func (s *MemoryStore) Sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, key)
		}
	}

	// Compact the queue so it does not grow past the live set.
	if len(s.queue) > len(s.entries) {
		live := s.queue[:0]
		for _, key := range s.queue {
			if _, ok := s.entries[key]; ok {
				live = append(live, key)
			}
		}
		s.queue = live
	}
}

// Start launches the periodic sweep. It returns immediately; the sweep
// stops when Stop is called.
func (s *MemoryStore) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop halts the background sweep. Safe to call more than once.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Size returns the number of live records, expired or not yet swept
// included.
func (s *MemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
