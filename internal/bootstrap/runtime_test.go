package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"postblog/internal/config"
	"postblog/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, redisURL, revocationBackend string) *config.Config {
	t.Helper()
	return &config.Config{
		StoreBackend:      config.StoreSQLite,
		SQLitePath:        filepath.Join(t.TempDir(), "postblog.db"),
		RedisURL:          redisURL,
		RevocationBackend: revocationBackend,
	}
}

func TestInitRuntime_SQLiteWithStoreRevocations(t *testing.T) {
	ctx := context.Background()
	rt, err := InitRuntime(ctx, sqliteConfig(t, "127.0.0.1:1", config.RevocationStore))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	assert.Nil(t, rt.Redis)
	require.NotNil(t, rt.Users)
	require.NotNil(t, rt.Revocations)

	require.NoError(t, rt.Users.Create(ctx, &models.User{Username: "alice", HashedPassword: "x", Posts: []models.Post{}}))
	got, err := rt.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NoError(t, rt.Revocations.Add(ctx, "tok", time.Now().Add(time.Hour)))
	revoked, err := rt.Revocations.Contains(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestInitRuntime_RedisRevocations(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rt, err := InitRuntime(ctx, sqliteConfig(t, mr.Addr(), config.RevocationRedis))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	require.NotNil(t, rt.Redis)
	require.NoError(t, rt.Revocations.Add(ctx, "tok", time.Now().Add(time.Hour)))
	assert.Len(t, mr.Keys(), 1)
}

func TestInitRuntime_RedisUnavailableFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	rt, err := InitRuntime(ctx, sqliteConfig(t, "127.0.0.1:1", config.RevocationRedis))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	assert.Nil(t, rt.Redis)
	require.NoError(t, rt.Revocations.Add(ctx, "tok", time.Now().Add(time.Hour)))
	revoked, err := rt.Revocations.Contains(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestInitRuntime_UnknownBackend(t *testing.T) {
	_, err := InitRuntime(context.Background(), &config.Config{StoreBackend: "cassandra"})
	assert.Error(t, err)
}

func TestRuntime_CloseRunsInReverse(t *testing.T) {
	var order []int
	rt := &Runtime{}
	rt.OnClose(func(context.Context) error { order = append(order, 1); return nil })
	rt.OnClose(func(context.Context) error { order = append(order, 2); return assert.AnError })

	err := rt.Close(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, rt.Close(context.Background()))
}
