package adapters

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"smartspend/internal/core"
	"smartspend/internal/services"
	"smartspend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteAdapter(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "adapter.db"))
	require.NoError(t, err)
	svc := services.NewTransactionService(repo, nil)
	t.Cleanup(func() { svc.Close() })

	a := NewSQLiteAdapter(repo, svc)
	require.NoError(t, a.Ping(ctx))

	ref, err := a.Submit(ctx, core.Earning, core.Transaction{Year: 2024, Month: 2, Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, "1", ref)

	_, err = a.Submit(ctx, core.Earning, core.Transaction{Year: 2024, Month: 2, Amount: -3})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	earnings, err := a.ListTransactions(ctx, core.Earning)
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
	spending, err := a.ListTransactions(ctx, core.Spending)
	require.NoError(t, err)
	assert.Empty(t, spending)

	u := core.User{ID: "u-1", Name: "Ada", Email: "ada@example.com", PasswordHash: "x", CreatedAt: time.Now()}
	ref, err = a.RegisterUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "user:u-1", ref)

	u.ID = "u-2"
	_, err = a.RegisterUser(ctx, u)
	assert.ErrorIs(t, err, core.ErrEmailTaken)
}
