package engine

import (
	"context"
	"log"
	"time"

	"github.com/rkeeling/kith/pkg/types"
)

// starterTimeout bounds a single regeneration call, including the LLM round
// trip.
const starterTimeout = 2 * time.Minute

// EnqueueStarters queues a person for conversation-starter regeneration.
// Never blocks: a full queue, an unstarted pool, or a missing generator drops
// the request silently. Regeneration idempotently overwrites a derived field,
// so a dropped or raced request is corrected by the next commit.
func (e *Engine) EnqueueStarters(personID string) {
	if e.starters == nil {
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.started || e.shuttingDown {
		return
	}

	select {
	case e.queue <- personID:
	default:
		log.Printf("engine: suggestion queue full, dropping regeneration for person %s", personID)
	}
}

// suggestionWorker drains the suggestion queue until it is closed. Failures
// are logged and swallowed; nothing reports back to the commit that enqueued
// the work.
func (e *Engine) suggestionWorker(ctx context.Context, id int) {
	defer e.workerWG.Done()

	for personID := range e.queue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := e.regenerateStarters(ctx, personID); err != nil {
			log.Printf("engine: worker %d: starter regeneration for person %s failed: %v",
				id, personID, err)
		}
	}
}

// regenerateStarters rebuilds a person's conversation starters from their
// current facts and active topics.
func (e *Engine) regenerateStarters(ctx context.Context, personID string) error {
	ctx, cancel := context.WithTimeout(ctx, starterTimeout)
	defer cancel()

	person, err := e.store.GetPerson(ctx, personID)
	if err != nil {
		return err
	}

	facts, err := e.store.ListFacts(ctx, personID)
	if err != nil {
		return err
	}

	topics, err := e.store.ListTopics(ctx, personID, types.TopicActive)
	if err != nil {
		return err
	}

	starters, err := e.starters.GenerateStarters(ctx, person, facts, topics)
	if err != nil {
		return err
	}

	return e.store.UpdateStarters(ctx, personID, starters)
}
