package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		kv, closeFn, err := Open(ctx, &config.Config{StorageDriver: config.StorageMemory}, zerolog.Nop())
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &MemoryKV{}, kv)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exstem.db")
		cfg := &config.Config{StorageDriver: config.StorageSQLite, SQLitePath: path}

		kv, closeFn, err := Open(ctx, cfg, zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, kv.Set(ctx, "k", []byte("v")))
		require.NoError(t, closeFn())

		// Reopening the same file sees the earlier write.
		kv, closeFn, err = Open(ctx, cfg, zerolog.Nop())
		require.NoError(t, err)
		defer closeFn()
		got, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", string(got))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := &config.Config{StorageDriver: config.StorageRedis, RedisURL: "not a url"}
		_, _, err := Open(ctx, cfg, zerolog.Nop())
		assert.Error(t, err)
	})
}
