package quote

import (
	"context"
	"sync"
	"time"

	"github.com/yourorg/paper-trade/internal/domain"
)

const (
	DefaultTTL         = 300 * time.Second
	DefaultConcurrency = 5
	fetchTimeout       = 15 * time.Second
)

// Store is the cache backend: in-memory by default, redis when a shared
// cache is configured. A miss is (nil, nil).
type Store interface {
	Get(ctx context.Context, symbol string) (*domain.Quote, error)
	Set(ctx context.Context, symbol string, q domain.Quote, ttl time.Duration) error
}

// Cache is the time-bounded quote cache. Hits return the stored value
// verbatim; misses fetch from the provider and cache only successes, so
// transient failures retry on the next access.
type Cache struct {
	provider Provider
	store    Store
	ttl      time.Duration
}

func NewCache(provider Provider, store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{provider: provider, store: store, ttl: ttl}
}

// Get never fails: provider errors come back as an invalid Quote carrying the
// error string, which callers treat as a cost-basis fallback signal.
func (c *Cache) Get(ctx context.Context, symbol string) domain.Quote {
	symbol = NormalizeSymbol(symbol)

	if cached, err := c.store.Get(ctx, symbol); err == nil && cached != nil {
		return *cached
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	q, err := c.provider.FetchQuote(fetchCtx, symbol)
	if err != nil {
		return domain.Quote{Symbol: symbol, Error: err.Error()}
	}
	_ = c.store.Set(ctx, symbol, q, c.ttl)
	return q
}

// GetBatch resolves every requested symbol, fanning fetches out across at
// most concurrency workers. One symbol's failure never blocks or fails its
// siblings; the result always has an entry per requested symbol.
func (c *Cache) GetBatch(ctx context.Context, symbols []string, concurrency int) map[string]domain.Quote {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	result := make(map[string]domain.Quote, len(symbols))
	if len(symbols) == 0 {
		return result
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			q := c.Get(ctx, symbol)
			mu.Lock()
			result[NormalizeSymbol(symbol)] = q
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()
	return result
}

type memoryEntry struct {
	quote   domain.Quote
	expires time.Time
}

// MemoryStore is the default process-local backend, mirroring the TTL map the
// original kept.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, symbol string) (*domain.Quote, error) {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.now().After(e.expires) {
		// Evict so the map does not accumulate dead symbols over long
		// uptimes. Recheck under the write lock: a concurrent Set may have
		// refreshed the entry.
		s.mu.Lock()
		if cur, ok := s.entries[symbol]; ok && s.now().After(cur.expires) {
			delete(s.entries, symbol)
		}
		s.mu.Unlock()
		return nil, nil
	}
	q := e.quote
	return &q, nil
}

func (s *MemoryStore) Set(_ context.Context, symbol string, q domain.Quote, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[symbol] = memoryEntry{quote: q, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}
