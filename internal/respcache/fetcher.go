package respcache

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
)

// FetchFunc performs the live request on a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Fetcher is a get-or-fetch front for a Store. Lookups for the same key are
// serialized, so at most one read-or-write per key is in flight.
type Fetcher struct {
	store  Store
	ignore []string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewFetcher creates a Fetcher. A nil store disables caching.
func NewFetcher(store Store, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		store:  store,
		ignore: DefaultIgnoredParams,
		logger: logger,
		locks:  make(map[string]*keyLock),
	}
}

// Get returns the cached body for baseURL+params or calls fetch and stores its result.
// Failed fetches are not cached. Store errors are logged and treated as a miss.
func (f *Fetcher) Get(ctx context.Context, baseURL string, params url.Values, fetch FetchFunc) ([]byte, error) {
	if f == nil || f.store == nil {
		return fetch(ctx)
	}

	key := Key(baseURL, params, f.ignore)
	unlock := f.lock(key)
	defer unlock()

	data, err := f.store.Get(ctx, key)
	switch {
	case err == nil:
		f.logger.Debug("cache hit", slog.String("key", key))
		return data, nil
	case !errors.Is(err, ErrNotFound):
		f.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	data, err = fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := f.store.Set(ctx, key, data); err != nil {
		f.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return data, nil
}

func (f *Fetcher) lock(key string) func() {
	f.mu.Lock()
	kl, ok := f.locks[key]
	if !ok {
		kl = &keyLock{}
		f.locks[key] = kl
	}
	kl.refs++
	f.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		f.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(f.locks, key)
		}
		f.mu.Unlock()
	}
}
