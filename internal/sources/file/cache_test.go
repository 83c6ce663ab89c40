package file

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finquest/internal/core"
	"finquest/internal/sources"
)

type countingSource struct {
	calls int
	raws  []core.RawTransaction
	err   error
}

func (s *countingSource) FetchTransactions(context.Context) ([]core.RawTransaction, error) {
	s.calls++
	return s.raws, s.err
}

func (s *countingSource) Kind() core.SourceKind { return core.SourcePlaid }

var _ sources.TransactionSource = (*countingSource)(nil)

func TestCachedSource_ServesFreshFile(t *testing.T) {
	src := &countingSource{raws: []core.RawTransaction{{"amount": 10, "merchant_name": "KFC"}}}
	c := NewCachedSource(src, filepath.Join(t.TempDir(), CacheFile), time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		raws, err := c.FetchTransactions(ctx)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(raws) != 1 || raws[0]["merchant_name"] != "KFC" {
			t.Fatalf("fetch %d: unexpected records %v", i, raws)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", src.calls)
	}
	if c.Kind() != core.SourcePlaid {
		t.Fatalf("kind should be delegated, got %s", c.Kind())
	}
}

func TestCachedSource_RefetchesWhenStale(t *testing.T) {
	src := &countingSource{raws: []core.RawTransaction{}}
	c := NewCachedSource(src, filepath.Join(t.TempDir(), CacheFile), time.Minute, nil)
	ctx := context.Background()

	if _, err := c.FetchTransactions(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := c.FetchTransactions(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected a refetch after the TTL, got %d calls", src.calls)
	}
}

func TestCachedSource_Invalidate(t *testing.T) {
	src := &countingSource{}
	c := NewCachedSource(src, filepath.Join(t.TempDir(), CacheFile), 0, nil)
	ctx := context.Background()
	if c.ttl != DefaultCacheTTL {
		t.Fatalf("expected default TTL, got %v", c.ttl)
	}
	if err := c.Invalidate(); err != nil {
		t.Fatalf("invalidate without file: %v", err)
	}
	_, _ = c.FetchTransactions(ctx)
	if err := c.Invalidate(); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = c.FetchTransactions(ctx)
	if src.calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", src.calls)
	}
}

func TestCachedSource_UpstreamError(t *testing.T) {
	boom := errors.New("upstream down")
	c := NewCachedSource(&countingSource{err: boom}, filepath.Join(t.TempDir(), CacheFile), time.Minute, nil)
	if _, err := c.FetchTransactions(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
