// Package engine implements the reconciliation engine: contact resolution,
// fact merging, topic lifecycle, memory recording, group classification, and
// the commit sequencing that turns a reviewed candidate into persisted
// records.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// Notifier schedules follow-up reminders for topics with a confirmed event
// date. Implementations are best-effort; the commit sequencer logs and
// continues on failure.
type Notifier interface {
	ScheduleReminder(ctx context.Context, topic *types.Topic) error
}

// StarterGenerator produces refreshed conversation-starter text for a person.
// Used only by the background suggestion worker (commit step 11).
type StarterGenerator interface {
	GenerateStarters(ctx context.Context, person *types.Person, facts []*types.Fact, topics []*types.Topic) (string, error)
}

// Config holds engine tuning knobs.
type Config struct {
	// WorkerCount is the number of suggestion worker goroutines (default: 1).
	WorkerCount int

	// QueueSize is the capacity of the suggestion queue (default: 16).
	QueueSize int
}

// Validate applies defaults and sanity-checks the config.
func (c *Config) Validate() error {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 1
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 16
	}
	if c.WorkerCount > 8 {
		return fmt.Errorf("worker count %d exceeds maximum of 8", c.WorkerCount)
	}
	return nil
}

// Engine orchestrates reconciliation against a storage backend.
// One commit sequence runs per user action; the only background activity is
// the fire-and-forget suggestion regeneration queue.
type Engine struct {
	store    storage.Store
	notifier Notifier
	starters StarterGenerator
	config   Config

	// Suggestion worker pool
	queue        chan string // person IDs awaiting starter regeneration
	workerWG     sync.WaitGroup
	workerCancel context.CancelFunc

	mu           sync.RWMutex
	started      bool
	shuttingDown bool
}

// New creates an engine over the given store. notifier and starters may be
// nil; the corresponding steps become no-ops.
func New(store storage.Store, notifier Notifier, starters StarterGenerator, config Config) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("storage backend is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		store:    store,
		notifier: notifier,
		starters: starters,
		config:   config,
		queue:    make(chan string, config.QueueSize),
	}, nil
}

// Store exposes the underlying storage backend for read paths (HTTP
// handlers listing persons, topics, etc.).
func (e *Engine) Store() storage.Store {
	return e.store
}

// Start launches the suggestion worker pool. Commit works without Start();
// step 11 is simply skipped while the pool is down.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("engine already started")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	e.workerCancel = cancel

	for i := 0; i < e.config.WorkerCount; i++ {
		e.workerWG.Add(1)
		go e.suggestionWorker(workerCtx, i)
	}

	e.started = true
	log.Printf("engine: started with %d suggestion worker(s)", e.config.WorkerCount)
	return nil
}

// Shutdown drains the suggestion queue and stops the workers.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine not started")
	}
	e.shuttingDown = true
	e.mu.Unlock()

	close(e.queue)

	done := make(chan struct{})
	go func() {
		e.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Give up on draining; cancel in-flight work.
		e.workerCancel()
		<-done
	}

	e.mu.Lock()
	e.started = false
	e.shuttingDown = false
	e.mu.Unlock()

	log.Println("engine: shut down")
	return nil
}
