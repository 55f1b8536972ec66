package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/config"
)

// Store is an opened Backend together with the resources it holds.
type Store struct {
	Backend
	closers []func(ctx context.Context) error
}

// Close releases every resource opened by Open.
func (s *Store) Close(ctx context.Context) error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open builds the configured backend and wraps it with event publishing and the
// Redis cache when those are configured.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &Store{}

	switch cfg.StoreBackend {
	case config.BackendTables:
		t, err := NewTables(cfg.StorageConnStr, cfg.TasksTable)
		if err != nil {
			return nil, fmt.Errorf("tables: %w", err)
		}
		s.Backend = t
	case config.BackendMongo:
		m, err := NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, err
		}
		s.Backend = m
		s.closers = append(s.closers, m.Close)
	case config.BackendSQLite, "":
		db, err := OpenSQLite(cfg.SQLiteDSN, logger)
		if err != nil {
			return nil, err
		}
		s.Backend = db
		s.closers = append(s.closers, func(context.Context) error { return db.Close() })
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	logger.WithField("backend", cfg.StoreBackend).Info("task store opened")

	if cfg.TaskEventsQueue != "" {
		pub, err := NewQueuePublisher(cfg.StorageConnStr, cfg.TaskEventsQueue)
		if err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("event queue: %w", err)
		}
		s.Backend = NewPublishing(s.Backend, pub, logger)
	}

	if opts := cfg.RedisOptions(); opts != nil {
		rc := redis.NewClient(opts)
		s.closers = append(s.closers, func(context.Context) error { return rc.Close() })
		s.Backend = NewCache(s.Backend, rc, cfg.CacheTTL, logger)
	}
	return s, nil
}
