package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/config"
	dbpkg "github.com/BruksfildServices01/clientflow/internal/db"
)

// Open builds the driver selected by STORAGE_DRIVER. The returned close
// function releases connections and is never nil.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageDriver {
	case "memory":
		return NewMemoryStorage(), noop, nil

	case "file", "":
		return NewFileStorage(cfg.StoragePath, log), noop, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisStorage(client, cfg.StorageNamespace), client.Close, nil

	case "postgres":
		db, err := dbpkg.NewDB(cfg)
		if err != nil {
			return nil, noop, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, noop, fmt.Errorf("get sql.DB: %w", err)
		}
		return NewGormStorage(db, cfg.StorageNamespace), sqlDB.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
