package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartspend/internal/cache"
	"smartspend/internal/core"
	"smartspend/internal/ledger"
	"smartspend/internal/ledger/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	ledger.TransactionSource
	calls map[core.Kind]int
	err   error
}

func (c *countingSource) ListTransactions(ctx context.Context, kind core.Kind) ([]core.Transaction, error) {
	c.calls[kind]++
	if c.err != nil {
		return nil, c.err
	}
	return c.TransactionSource.ListTransactions(ctx, kind)
}

func TestCachedSource_CachesPerKindAndInvalidatesOnSubmit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.Submit(ctx, core.Earning, core.Transaction{Year: 2024, Month: 1, Amount: 10})
	require.NoError(t, err)

	counting := &countingSource{TransactionSource: store, calls: map[core.Kind]int{}}
	cached := ledger.NewCachedSource(counting, cache.NewLRUCache[[]core.Transaction](4, time.Minute))
	writer := ledger.NewCachingWriter(store, cached)

	for i := 0; i < 3; i++ {
		txs, err := cached.ListTransactions(ctx, core.Earning)
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	}
	_, err = cached.ListTransactions(ctx, core.Spending)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls[core.Earning])
	assert.Equal(t, 1, counting.calls[core.Spending])

	_, err = writer.Submit(ctx, core.Earning, core.Transaction{Year: 2024, Month: 2, Amount: 5})
	require.NoError(t, err)

	txs, err := cached.ListTransactions(ctx, core.Earning)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, 2, counting.calls[core.Earning])

	_, err = cached.ListTransactions(ctx, core.Spending)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls[core.Spending], "spending entry must survive an earning submit")
}

func TestCachedSource_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.Submit(ctx, core.Spending, core.Transaction{Year: 2024, Month: 1, Amount: 10})
	require.NoError(t, err)

	cached := ledger.NewCachedSource(store, cache.NewLRUCache[[]core.Transaction](4, time.Minute))
	first, err := cached.ListTransactions(ctx, core.Spending)
	require.NoError(t, err)
	first[0].Amount = 999

	second, err := cached.ListTransactions(ctx, core.Spending)
	require.NoError(t, err)
	assert.Equal(t, 10.0, second[0].Amount)
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	counting := &countingSource{TransactionSource: memory.New(), calls: map[core.Kind]int{}, err: boom}
	cached := ledger.NewCachedSource(counting, cache.NewLRUCache[[]core.Transaction](4, time.Minute))

	_, err := cached.ListTransactions(ctx, core.Earning)
	assert.ErrorIs(t, err, boom)
	_, err = cached.ListTransactions(ctx, core.Earning)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, counting.calls[core.Earning])
}

func TestCachingWriter_FailedSubmitKeepsCache(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	counting := &countingSource{TransactionSource: store, calls: map[core.Kind]int{}}
	cached := ledger.NewCachedSource(counting, cache.NewLRUCache[[]core.Transaction](4, time.Minute))
	writer := ledger.NewCachingWriter(store, cached)

	_, err := cached.ListTransactions(ctx, core.Earning)
	require.NoError(t, err)

	_, err = writer.Submit(ctx, core.Earning, core.Transaction{Year: 2024, Month: 0, Amount: 5})
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)

	_, err = cached.ListTransactions(ctx, core.Earning)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls[core.Earning])
}
