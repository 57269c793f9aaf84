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

// CreateMemory appends an episodic event record.
func (s *Store) CreateMemory(ctx context.Context, memory *types.Memory) error {
	if memory == nil {
		return storage.ErrInvalidInput
	}
	if memory.ID == "" || memory.PersonID == "" {
		return fmt.Errorf("%w: memory ID and person ID are required", storage.ErrInvalidInput)
	}
	if memory.Description == "" {
		return fmt.Errorf("%w: memory description is required", storage.ErrInvalidInput)
	}

	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, person_id, description, event_date, is_shared, note_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		memory.ID, memory.PersonID, memory.Description,
		nullString(memory.EventDate), memory.IsShared,
		nullString(memory.NoteID), memory.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert memory: %w", err)
	}

	return nil
}

// ListMemories returns a person's memories, newest first.
func (s *Store) ListMemories(ctx context.Context, personID string) ([]*types.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, description, event_date, is_shared, note_id, created_at
		FROM memories WHERE person_id = $1 ORDER BY created_at DESC`, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var memories []*types.Memory
	for rows.Next() {
		var (
			memory            types.Memory
			eventDate, noteID sql.NullString
		)
		if err := rows.Scan(&memory.ID, &memory.PersonID, &memory.Description,
			&eventDate, &memory.IsShared, &noteID, &memory.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memory.EventDate = eventDate.String
		memory.NoteID = noteID.String
		memories = append(memories, &memory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memories: %w", err)
	}

	return memories, nil
}

// DeleteMemory removes a memory by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	return checkAffected(result)
}

// CreateNote persists the immutable transcript anchor.
func (s *Store) CreateNote(ctx context.Context, note *types.Note) error {
	if note == nil {
		return storage.ErrInvalidInput
	}
	if note.ID == "" || note.PersonID == "" {
		return fmt.Errorf("%w: note ID and person ID are required", storage.ErrInvalidInput)
	}
	if note.Transcript == "" {
		return fmt.Errorf("%w: note transcript is required", storage.ErrInvalidInput)
	}

	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, person_id, transcript, created_at)
		VALUES ($1, $2, $3, $4)`,
		note.ID, note.PersonID, note.Transcript, note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	return nil
}

// GetNote retrieves a note by ID.
func (s *Store) GetNote(ctx context.Context, id string) (*types.Note, error) {
	var note types.Note
	err := s.db.QueryRowContext(ctx, `
		SELECT id, person_id, transcript, created_at
		FROM notes WHERE id = $1`, id).
		Scan(&note.ID, &note.PersonID, &note.Transcript, &note.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &note, nil
}

// ListNotes returns a person's notes, newest first.
func (s *Store) ListNotes(ctx context.Context, personID string) ([]*types.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, transcript, created_at
		FROM notes WHERE person_id = $1 ORDER BY created_at DESC`, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []*types.Note
	for rows.Next() {
		var note types.Note
		if err := rows.Scan(&note.ID, &note.PersonID, &note.Transcript, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}
