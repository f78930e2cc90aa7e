package storage

import (
	"context"
	"fmt"

	"github.com/hann12-34/discovr-events/internal/config"
)

// Open creates the store selected by cfg.Backend
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreNone:
		return Discard{}, nil
	case config.StoreFile, "":
		return NewFileStore(cfg.DataDir)
	case config.StoreMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case config.StoreRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisMaxLen)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
