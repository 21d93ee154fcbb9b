package main

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
)

// openStore connects the backend selected by cfg.Storage.Driver. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryStore(), func() {}, nil

	case "redis":
		client, err := storage.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
		return storage.NewRedisStore(client, cfg.Redis.Prefix, cfg.Redis.TTL), func() {
			if err := client.Close(); err != nil {
				log.Warn("close redis", zap.Error(err))
			}
		}, nil

	case "mongo":
		db, err := storage.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewMongoStore(db, cfg.Mongo.Collection)
		if err := store.CreateIndexes(ctx); err != nil {
			log.Warn("create mongo indexes", zap.Error(err))
		}
		log.Info("connected to mongodb", zap.String("database", cfg.Mongo.Database))
		return store, func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Warn("disconnect mongodb", zap.Error(err))
			}
		}, nil

	case storage.DriverSQLite, storage.DriverPostgres:
		store, err := storage.NewSQLStore(cfg.Storage.Driver, cfg.SQL.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.RunMigrations(); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		log.Info("sql store ready", zap.String("driver", cfg.Storage.Driver))
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn("close sql store", zap.Error(err))
			}
		}, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
