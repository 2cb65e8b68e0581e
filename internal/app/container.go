package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"haul-dispatch/internal/config"
	"haul-dispatch/internal/database"
	"haul-dispatch/internal/database/migration"
	dbpostgres "haul-dispatch/internal/database/postgres"
	"haul-dispatch/internal/infrastructure/cache"
	"haul-dispatch/internal/ws"
)

// Container owns the long-lived infrastructure: the database pool, the
// redis cache, and the websocket hub.
type Container struct {
	Config config.Config
	DB     database.DB
	Cache  *cache.Redis
	Hub    *ws.Hub
	Logger *log.Logger
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	r := migration.Runner{Dir: cfg.App.MigrationsDir}
	if err := r.Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	hub := ws.NewHub(logger)
	go hub.Run()

	return &Container{
		Config: cfg,
		DB:     db,
		Cache:  cache.NewRedis(cfg.Redis, logger),
		Hub:    hub,
		Logger: logger,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
