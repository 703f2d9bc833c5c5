package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/config"
	"github.com/stemsi/exstem-local/internal/database"
)

// Open connects the key-value backend selected by cfg.StorageDriver. The
// returned close function releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (KV, func() error, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage; nothing survives a restart")
		return NewMemoryKV(), func() error { return nil }, nil

	case config.StorageRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis storage: %w", err)
		}
		return NewRedisKV(rdb, cfg.RedisKeyPrefix), rdb.Close, nil

	default:
		db, err := database.NewSQLite(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return NewSQLiteKV(db), db.Close, nil
	}
}
