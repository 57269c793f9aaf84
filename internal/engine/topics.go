package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rkeeling/kith/pkg/types"
)

// ErrTopicNotActive is returned when an edit requires an active topic.
var ErrTopicNotActive = fmt.Errorf("topic is not active")

// CreateTopics creates the selected new topics, always active, referencing
// the note as provenance. A reminder is scheduled for topics carrying a
// confirmed event date; a single creation failure does not abort the rest.
func (e *Engine) CreateTopics(ctx context.Context, personID, noteID string, candidates []types.CandidateTopic) ([]*types.Topic, error) {
	var created []*types.Topic

	for _, candidate := range candidates {
		topic := &types.Topic{
			ID:        uuid.NewString(),
			PersonID:  personID,
			Title:     candidate.Title,
			Context:   candidate.Context,
			Status:    types.TopicActive,
			EventDate: candidate.EventDate,
			NoteID:    noteID,
		}
		if err := e.store.CreateTopic(ctx, topic); err != nil {
			log.Printf("engine: failed to create topic %q for person %s: %v",
				candidate.Title, personID, err)
			continue
		}
		created = append(created, topic)

		if topic.EventDate != "" && e.notifier != nil {
			if err := e.notifier.ScheduleReminder(ctx, topic); err != nil {
				// Reminder scheduling is best-effort; the topic stays.
				log.Printf("engine: failed to schedule reminder for topic %s: %v", topic.ID, err)
			}
		}
	}

	return created, nil
}

// ApplyResolutions applies human-confirmed topic resolutions: each
// referenced topic transitions active→resolved with the (possibly edited)
// resolution text and a resolution timestamp. Topic IDs come from the
// extraction service, so each topic must belong to the committed person;
// IDs pointing elsewhere are skipped. Failures are logged and the remaining
// confirmations still run. Returns the count applied.
func (e *Engine) ApplyResolutions(ctx context.Context, personID string, confirmed []types.TopicResolution) int {
	applied := 0
	for _, res := range confirmed {
		topic, err := e.store.GetTopic(ctx, res.TopicID)
		if err != nil {
			log.Printf("engine: failed to apply resolution for topic %s: %v", res.TopicID, err)
			continue
		}
		if topic.PersonID != personID {
			log.Printf("engine: skipping resolution for topic %s: belongs to person %s, not %s",
				res.TopicID, topic.PersonID, personID)
			continue
		}
		if err := e.ResolveTopic(ctx, res.TopicID, res.Resolution); err != nil {
			log.Printf("engine: failed to apply resolution for topic %s: %v", res.TopicID, err)
			continue
		}
		applied++
	}
	return applied
}

// ResolveTopic transitions a topic to resolved with an optional resolution
// text, stamping resolvedAt. Resolving an already-resolved topic overwrites
// the previous resolution.
func (e *Engine) ResolveTopic(ctx context.Context, topicID, resolution string) error {
	topic, err := e.store.GetTopic(ctx, topicID)
	if err != nil {
		return err
	}

	if !types.IsValidTopicTransition(topic.Status, types.TopicResolved) {
		return fmt.Errorf("cannot resolve topic in status %q", topic.Status)
	}

	now := time.Now()
	topic.Status = types.TopicResolved
	topic.Resolution = resolution
	topic.ResolvedAt = &now

	return e.store.UpdateTopic(ctx, topic)
}

// ReopenTopic reverts a resolved topic to active. The prior resolution and
// resolvedAt are left in place until the next resolve overwrites them.
func (e *Engine) ReopenTopic(ctx context.Context, topicID string) error {
	topic, err := e.store.GetTopic(ctx, topicID)
	if err != nil {
		return err
	}

	if !types.IsValidTopicTransition(topic.Status, types.TopicActive) {
		return fmt.Errorf("cannot reopen topic in status %q", topic.Status)
	}

	topic.Status = types.TopicActive
	return e.store.UpdateTopic(ctx, topic)
}

// EditTopic updates title and context. Allowed only while the topic is
// active.
func (e *Engine) EditTopic(ctx context.Context, topicID, title, topicContext string) error {
	topic, err := e.store.GetTopic(ctx, topicID)
	if err != nil {
		return err
	}

	if topic.Status != types.TopicActive {
		return ErrTopicNotActive
	}

	if title != "" {
		topic.Title = title
	}
	topic.Context = topicContext
	return e.store.UpdateTopic(ctx, topic)
}

// EditResolution updates the resolution text in any state.
func (e *Engine) EditResolution(ctx context.Context, topicID, resolution string) error {
	topic, err := e.store.GetTopic(ctx, topicID)
	if err != nil {
		return err
	}

	topic.Resolution = resolution
	return e.store.UpdateTopic(ctx, topic)
}

// DeleteTopic removes a topic entirely.
func (e *Engine) DeleteTopic(ctx context.Context, topicID string) error {
	return e.store.DeleteTopic(ctx, topicID)
}
