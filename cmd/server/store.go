package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-factures/internal/config"
	"github.com/diewo77/go-factures/internal/store"
	"github.com/diewo77/go-factures/internal/store/firestore"
	"github.com/diewo77/go-factures/internal/store/kvstore"
	"github.com/diewo77/go-factures/internal/store/sqlstore"
)

// openStore builds the invoice store selected by STORE_BACKEND. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg *config.Config, conn *gorm.DB, log *zap.Logger) (store.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		fs, err := firestore.Open(ctx, cfg.Store.FirestoreProject)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using firestore store", zap.String("project", cfg.Store.FirestoreProject))
		return fs, fs.Close, nil
	case config.BackendLocal:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// keep serving; requests fail until redis is back
			log.Warn("redis unreachable", zap.String("addr", cfg.Store.RedisAddr), zap.Error(err))
		}
		log.Info("using local store", zap.String("addr", cfg.Store.RedisAddr), zap.String("prefix", cfg.Store.RedisKeyPrefix))
		return kvstore.New(rdb, cfg.Store.RedisKeyPrefix), rdb.Close, nil
	case config.BackendSQL:
		log.Info("using sql store", zap.String("driver", cfg.Database.Driver))
		return sqlstore.New(conn), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
