package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"DailyByte/internal/config"
	"DailyByte/internal/ports"
)

// Open builds the state store selected by cfg.Backend. The returned closer is never nil.
func Open(ctx context.Context, cfg config.StateConfig) (ports.StateStore, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", config.BackendFile:
		store, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.Dir, "dailybyte.db")
		}
		store, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case config.BackendRedis:
		store, err := OpenRedis(ctx, redisConfig(cfg), cfg.TTL)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

func redisConfig(cfg config.StateConfig) RedisConfig {
	return RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
	}
}
