package ledger

import (
	"context"
	"log/slog"

	"smartspend/internal/cache"
	"smartspend/internal/core"
)

// CachedSource caches raw ListTransactions results of a slow source, one
// entry per kind. Only fetched rows are cached; every chart is still
// computed from them on each request.
type CachedSource struct {
	source TransactionSource
	cache  cache.Cache[[]core.Transaction]
}

var (
	_ TransactionSource = (*CachedSource)(nil)
	_ TransactionWriter = (*CachingWriter)(nil)
)

func NewCachedSource(source TransactionSource, c cache.Cache[[]core.Transaction]) *CachedSource {
	return &CachedSource{source: source, cache: c}
}

func (s *CachedSource) ListTransactions(ctx context.Context, kind core.Kind) ([]core.Transaction, error) {
	key := string(kind)
	if txs, ok := s.cache.Get(key); ok {
		slog.DebugContext(ctx, "Transaction source cache hit", "kind", kind)
		return append([]core.Transaction(nil), txs...), nil
	}
	txs, err := s.source.ListTransactions(ctx, kind)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, append([]core.Transaction(nil), txs...))
	return txs, nil
}

// Invalidate forgets the cached rows of kind.
func (s *CachedSource) Invalidate(kind core.Kind) {
	s.cache.Delete(string(kind))
}

// CachingWriter invalidates a CachedSource after each successful submit so
// a fresh write is visible on the next read.
type CachingWriter struct {
	writer TransactionWriter
	source *CachedSource
}

func NewCachingWriter(w TransactionWriter, s *CachedSource) *CachingWriter {
	return &CachingWriter{writer: w, source: s}
}

func (w *CachingWriter) Submit(ctx context.Context, kind core.Kind, tx core.Transaction) (string, error) {
	ref, err := w.writer.Submit(ctx, kind, tx)
	if err != nil {
		return "", err
	}
	w.source.Invalidate(kind)
	return ref, nil
}
