package store

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/pet-marketplace/config"
	"github.com/irsalhamdi/pet-marketplace/database"
	"github.com/sirupsen/logrus"
)

// Open builds the backend selected by cfg.Store.Backend. The returned func
// releases its connections.
func Open(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case "memory":
		return NewMemory(), noop, nil

	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case "postgres":
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, noop, fmt.Errorf("opening postgres: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := database.StatusCheck(ctx, db); err != nil {
			db.Close()
			return nil, noop, err
		}

		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, noop, err
		}
		return NewPostgres(db), db.Close, nil

	case "redis":
		r := NewRedis(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err := r.Initialize(ctx, log, 10); err != nil {
			r.Close()
			return nil, noop, err
		}
		return r, r.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
