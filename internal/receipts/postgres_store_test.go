//go:build integration

package receipts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightballer/ocean-bridge/internal/testutil"
)

func pgReceipt(id, account, reference string) *Receipt {
	now := time.Now().UTC().Truncate(time.Second)
	return &Receipt{
		ID:          id,
		Action:      "create_dispenser",
		Reference:   reference,
		Account:     account,
		TxHash:      "0xabc123",
		Status:      StatusCompleted,
		PayloadHash: "deadbeef",
		Signature:   "cafebabe",
		IssuedAt:    now,
		ExpiresAt:   now.Add(signatureValidity),
		CreatedAt:   now,
	}
}

func TestPostgresStore_CreateAndGet(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)
	require.NoError(t, store.Migrate(ctx))

	want := pgReceipt("r-1", "0x1111111111111111111111111111111111111111", "did:op:aaa")
	want.Metadata = `{"note":"first"}`
	require.NoError(t, store.Create(ctx, want))

	got, err := store.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, want.Action, got.Action)
	assert.Equal(t, want.Reference, got.Reference)
	assert.Equal(t, want.Account, got.Account)
	assert.Equal(t, want.TxHash, got.TxHash)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Signature, got.Signature)
	assert.Equal(t, want.Metadata, got.Metadata)
	assert.WithinDuration(t, want.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)
	require.NoError(t, store.Migrate(ctx))

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrReceiptNotFound)
}

func TestPostgresStore_ListByAccount(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)
	require.NoError(t, store.Migrate(ctx))

	account := "0x2222222222222222222222222222222222222222"
	for i, id := range []string{"a-1", "a-2", "a-3"} {
		r := pgReceipt(id, account, "did:op:bbb")
		r.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Create(ctx, r))
	}
	other := pgReceipt("a-4", "0x3333333333333333333333333333333333333333", "did:op:bbb")
	require.NoError(t, store.Create(ctx, other))

	list, err := store.ListByAccount(ctx, account, 10)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	limited, err := store.ListByAccount(ctx, account, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestPostgresStore_ListByReference(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)
	require.NoError(t, store.Migrate(ctx))

	require.NoError(t, store.Create(ctx, pgReceipt("b-1", "0x4444444444444444444444444444444444444444", "did:op:ccc")))
	require.NoError(t, store.Create(ctx, pgReceipt("b-2", "0x4444444444444444444444444444444444444444", "did:op:ddd")))

	list, err := store.ListByReference(ctx, "did:op:ccc")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b-1", list[0].ID)
}
