package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rkeeling/kith/internal/config"
	"github.com/rkeeling/kith/internal/engine"
	"github.com/rkeeling/kith/internal/llm"
	"github.com/rkeeling/kith/internal/notify"
	"github.com/rkeeling/kith/internal/server"
	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/internal/storage/postgres"
	"github.com/rkeeling/kith/internal/storage/sqlite"
	"github.com/rkeeling/kith/web/handlers"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Settings stored in the database override env values.
	if dbStore, ok := store.(interface{ GetDB() *sql.DB }); ok {
		if dbCfg, err := config.LoadConfigFromDB(dbStore.GetDB()); err == nil {
			cfg = dbCfg
		} else {
			log.Printf("Warning: failed to load settings from database: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	extractor, starters := buildExtractor(cfg)

	notifier := notify.NewReminderNotifier(cfg.Notify.EventsPath)

	eng, err := engine.New(store, notifier, starters, engine.Config{
		WorkerCount: cfg.Engine.WorkerCount,
		QueueSize:   cfg.Engine.QueueSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}
	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	addr, hub, err := server.Start(ctx, cfg, eng, extractor)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("kith running at http://%s", addr)

	// Forward notify events (reminders, cross-process commits) to connected
	// review clients.
	watcher := notify.NewEventWatcher(cfg.Notify.EventsPath, func(ev notify.Event) {
		hub.Broadcast(handlers.WSEvent{Type: ev.Type, PersonID: ev.PersonID, Payload: ev.Detail})
	})
	if err := watcher.Start(); err != nil {
		log.Printf("Warning: event watcher not running: %v", err)
	} else {
		defer watcher.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	if err := eng.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down engine: %v", err)
	}

	cancel()
	time.Sleep(1 * time.Second)
}

// openStore picks the storage backend from config.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.StorageEngine {
	case "postgres":
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	case "sqlite", "":
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return sqlite.NewStore(cfg.Storage.DataPath + "/kith.db")
	default:
		return nil, fmt.Errorf("unsupported storage engine: %q", cfg.Storage.StorageEngine)
	}
}

// buildExtractor creates the extraction client and starter generator. A
// provider construction failure is not fatal: the server runs with the
// extract endpoints disabled.
func buildExtractor(cfg *config.Config) (handlers.ExtractionService, engine.StarterGenerator) {
	providerCfg := llm.ProviderConfig{
		Provider: cfg.LLM.Provider,
	}
	switch cfg.LLM.Provider {
	case "openai":
		providerCfg.APIKey = cfg.LLM.OpenAIAPIKey
		providerCfg.Model = cfg.LLM.OpenAIModel
	default:
		providerCfg.BaseURL = cfg.LLM.OllamaURL
		providerCfg.Model = cfg.LLM.OllamaModel
	}

	generator, err := llm.NewTextGenerator(providerCfg)
	if err != nil {
		log.Printf("Warning: no extraction provider: %v", err)
		return nil, nil
	}
	extractor, err := llm.NewExtractor(generator)
	if err != nil {
		log.Printf("Warning: no extraction provider: %v", err)
		return nil, nil
	}
	log.Printf("Extraction provider: %s (%s)", cfg.LLM.Provider, generator.GetModel())
	return extractor, extractor
}
