package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// CreateTopic inserts a new topic row. Topics always start active.
func (s *Store) CreateTopic(ctx context.Context, topic *types.Topic) error {
	if topic == nil {
		return storage.ErrInvalidInput
	}
	if topic.ID == "" || topic.PersonID == "" {
		return fmt.Errorf("%w: topic ID and person ID are required", storage.ErrInvalidInput)
	}
	if topic.Title == "" {
		return fmt.Errorf("%w: topic title is required", storage.ErrInvalidInput)
	}

	if topic.Status == "" {
		topic.Status = types.TopicActive
	}
	if !types.IsValidTopicStatus(topic.Status) {
		return fmt.Errorf("%w: unknown topic status %q", storage.ErrInvalidInput, topic.Status)
	}

	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now()
	}
	if topic.UpdatedAt.IsZero() {
		topic.UpdatedAt = topic.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topics (
			id, person_id, title, context, status, event_date,
			resolution, resolved_at, note_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		topic.ID, topic.PersonID, topic.Title,
		nullString(topic.Context), string(topic.Status), nullString(topic.EventDate),
		nullString(topic.Resolution), nullTime(topic.ResolvedAt),
		nullString(topic.NoteID), topic.CreatedAt, topic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert topic: %w", err)
	}

	return nil
}

// GetTopic retrieves a topic by ID.
func (s *Store) GetTopic(ctx context.Context, id string) (*types.Topic, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, person_id, title, context, status, event_date,
		       resolution, resolved_at, note_id, created_at, updated_at
		FROM topics WHERE id = $1`, id)

	topic, err := scanTopic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	return topic, nil
}

// ListTopics returns a person's topics, optionally filtered by status,
// newest first.
func (s *Store) ListTopics(ctx context.Context, personID string, status types.TopicStatus) ([]*types.Topic, error) {
	query := `
		SELECT id, person_id, title, context, status, event_date,
		       resolution, resolved_at, note_id, created_at, updated_at
		FROM topics WHERE person_id = $1`
	args := []interface{}{personID}

	if status != "" {
		query += " AND status = $2"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var topics []*types.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topics: %w", err)
	}

	return topics, nil
}

// UpdateTopic persists status, resolution, and edit changes.
func (s *Store) UpdateTopic(ctx context.Context, topic *types.Topic) error {
	if topic == nil || topic.ID == "" {
		return fmt.Errorf("%w: topic ID is required", storage.ErrInvalidInput)
	}
	if !types.IsValidTopicStatus(topic.Status) {
		return fmt.Errorf("%w: unknown topic status %q", storage.ErrInvalidInput, topic.Status)
	}

	topic.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE topics SET
			title = $1, context = $2, status = $3, event_date = $4,
			resolution = $5, resolved_at = $6, updated_at = $7
		WHERE id = $8`,
		topic.Title, nullString(topic.Context), string(topic.Status),
		nullString(topic.EventDate), nullString(topic.Resolution),
		nullTime(topic.ResolvedAt), topic.UpdatedAt, topic.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}

	return checkAffected(result)
}

// DeleteTopic removes a topic by ID.
func (s *Store) DeleteTopic(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	return checkAffected(result)
}

func scanTopic(row scanner) (*types.Topic, error) {
	var (
		topic                       types.Topic
		status                      string
		tctx, eventDate, resolution sql.NullString
		noteID                      sql.NullString
		resolvedAt                  sql.NullTime
	)

	err := row.Scan(
		&topic.ID, &topic.PersonID, &topic.Title, &tctx, &status, &eventDate,
		&resolution, &resolvedAt, &noteID, &topic.CreatedAt, &topic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	topic.Context = tctx.String
	topic.Status = types.TopicStatus(status)
	topic.EventDate = eventDate.String
	topic.Resolution = resolution.String
	topic.NoteID = noteID.String
	if resolvedAt.Valid {
		t := resolvedAt.Time
		topic.ResolvedAt = &t
	}

	return &topic, nil
}
