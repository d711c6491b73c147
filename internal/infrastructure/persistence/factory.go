// Package persistence stores client state (session and cart) between runs.
package persistence

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/config"
)

// Open creates the store selected by cfg.Storage.Driver
func Open(cfg *config.Config, log *zap.Logger) (shared.KeyValueStore, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		store, err := NewRedisStore(RedisConfig{
			Addr:      cfg.Redis.Addr(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, cfg.Storage.Namespace)
		if err != nil {
			return nil, err
		}
		log.Debug("Using Redis storage", zap.String("addr", cfg.Redis.Addr()))
		return store, nil
	case "sqlite":
		store, err := NewSQLiteStore(cfg.Storage.Path, cfg.Storage.Namespace, log, cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		log.Debug("Using SQLite storage", zap.String("path", cfg.Storage.Path))
		return store, nil
	case "postgres":
		store, err := NewPostgresStore(cfg.Storage.DSN, cfg.Storage.Namespace, log, cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		log.Debug("Using PostgreSQL storage")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
