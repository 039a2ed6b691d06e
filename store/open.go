package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mbolis/survey-flow/config"
	"github.com/mbolis/survey-flow/database"
)

const redisPrefix = "qs:answers:"

// Purger is implemented by backends that need expired snapshots removed
// explicitly. Redis expires keys on its own.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Open builds the backend selected by cfg.Store.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return NewMemory(cfg.SessionTTL), nil
	case config.StoreSQLite:
		db, err := database.Open(cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		return NewSQLite(db, cfg.SessionTTL), nil
	case config.StoreRedis:
		return DialRedis(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, redisPrefix, cfg.SessionTTL)
	}
	return nil, errors.Errorf("store: unknown backend %q", cfg.Store)
}
