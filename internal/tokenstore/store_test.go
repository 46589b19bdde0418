package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestStore_RevokeAndCheck(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("blacklist:jti-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestStore_RevokeExpiredTokenIsNoop(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Revoke(context.Background(), "old", 0))
	assert.False(t, mr.Exists("blacklist:old"))
}

func TestStore_NilClient(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	assert.False(t, store.Available())
	assert.ErrorIs(t, store.Revoke(ctx, "jti", time.Minute), ErrUnavailable)
	assert.ErrorIs(t, store.Ping(ctx), ErrUnavailable)

	revoked, err := store.IsRevoked(ctx, "jti")
	assert.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, store.Close())
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, Connect(addr))
}

func TestNewClient_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())

	_, err = NewClient("redis://%zz")
	assert.Error(t, err)
}
