package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/config"
	"github.com/Kini99/MisogiAI-natural-language-task-manager/storage"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.WithField("backend", cfg.StoreBackend).Info("storage init starting")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cfg.StoreBackend {
	case config.BackendTables:
		t, err := storage.NewTables(cfg.StorageConnStr, cfg.TasksTable)
		if err != nil {
			log.Fatalf("tables: %v", err)
		}
		if err := t.EnsureTable(ctx); err != nil {
			log.Fatalf("create table %s: %v", cfg.TasksTable, err)
		}
	case config.BackendMongo:
		m, err := storage.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			log.Fatalf("mongo: %v", err)
		}
		defer m.Close(context.Background())
		if err := m.EnsureSchema(ctx); err != nil {
			log.Fatalf("mongo schema: %v", err)
		}
	default:
		db, err := storage.OpenSQLite(cfg.SQLiteDSN, log.StandardLogger())
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		defer db.Close()
	}

	if cfg.TaskEventsQueue != "" {
		q, err := storage.NewQueuePublisher(cfg.StorageConnStr, cfg.TaskEventsQueue)
		if err != nil {
			log.Fatalf("queue client: %v", err)
		}
		if err := q.EnsureQueue(ctx); err != nil {
			log.Fatalf("create queue %s: %v", cfg.TaskEventsQueue, err)
		}
	}

	log.Info("storage init complete")
}
