package file

import (
	"context"
	"os"
	"sync"
	"time"

	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources"
)

// DefaultCacheTTL is how long a cache file is served before the wrapped
// source is asked again.
const DefaultCacheTTL = 300 * time.Second

// CachedSource serves transactions from a cache file while its modification
// time is younger than the TTL, and refreshes it from the wrapped source
// otherwise. Freshness is judged by the file's mtime so the cache survives
// restarts.
type CachedSource struct {
	mu     sync.Mutex
	src    sources.TransactionSource
	path   string
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

var _ sources.TransactionSource = (*CachedSource)(nil)

func NewCachedSource(src sources.TransactionSource, path string, ttl time.Duration, logger *log.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &CachedSource{
		src:    src,
		path:   path,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentCache),
	}
}

func (c *CachedSource) Kind() core.SourceKind { return c.src.Kind() }

func (c *CachedSource) FetchTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fresh() {
		raws, err := readTransactions(c.path)
		if err == nil {
			c.logger.DebugContext(ctx, "Serving transactions from cache file",
				"path", c.path, log.FieldTransactionCount, len(raws))
			return raws, nil
		}
		c.logger.WarnContext(ctx, "Unreadable cache file, refetching", "path", c.path, log.FieldError, err)
	}

	raws, err := c.src.FetchTransactions(ctx)
	if err != nil {
		return nil, err
	}
	if raws == nil {
		raws = []core.RawTransaction{}
	}
	if err := writeJSON(c.path, map[string]any{"transactions": raws}); err != nil {
		// Best effort: the fetched records are returned regardless.
		c.logger.WarnContext(ctx, "Failed to write cache file", "path", c.path, log.FieldError, err)
	}
	return raws, nil
}

// Invalidate removes the cache file so the next fetch goes to the source.
func (c *CachedSource) Invalidate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *CachedSource) fresh() bool {
	info, err := os.Stat(c.path)
	if err != nil {
		return false
	}
	return c.now().Sub(info.ModTime()) < c.ttl
}
