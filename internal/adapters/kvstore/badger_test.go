package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravekeeper/core/internal/infrastructure/config"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

func openMemory(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadger("", true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	require.NoError(t, store.Set(ctx, "k", []byte("v2")))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ports.ErrKeyNotFound)

	assert.NoError(t, store.Delete(ctx, "never-set"))
	assert.NoError(t, store.Ping(ctx))
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadger(dir, false, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "graveyard_maintenance", []byte(`[]`)))
	require.NoError(t, store.Close())

	reopened, err := OpenBadger(dir, false, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "graveyard_maintenance")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func TestBadgerStore_CancelledContext(t *testing.T) {
	store := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Set(ctx, "k", []byte("v")), context.Canceled)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadgerStore_PingAfterClose(t *testing.T) {
	store, err := OpenBadger("", true, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.Error(t, store.Ping(context.Background()))
}

func TestOpen_Drivers(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "badger", InMemory: true}}
	store, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = OpenBadger("", false, nil)
	assert.Error(t, err)

	cfg.Store.Driver = "etcd"
	_, err = Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}
