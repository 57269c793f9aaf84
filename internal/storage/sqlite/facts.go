package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// CreateFact inserts a new fact row.
func (s *Store) CreateFact(ctx context.Context, fact *types.Fact) error {
	if fact == nil {
		return storage.ErrInvalidInput
	}
	if fact.ID == "" || fact.PersonID == "" {
		return fmt.Errorf("%w: fact ID and person ID are required", storage.ErrInvalidInput)
	}
	if !types.IsValidFactCategory(fact.Category) {
		return fmt.Errorf("%w: unknown fact category %q", storage.ErrInvalidInput, fact.Category)
	}
	if fact.Value == "" {
		return fmt.Errorf("%w: fact value is required", storage.ErrInvalidInput)
	}

	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = time.Now()
	}
	if fact.UpdatedAt.IsZero() {
		fact.UpdatedAt = fact.CreatedAt
	}

	historyJSON, err := marshalHistory(fact.PreviousValues)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO facts (
			id, person_id, category, label, value,
			previous_values, note_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fact.ID, fact.PersonID, string(fact.Category), fact.Label, fact.Value,
		historyJSON, nullString(fact.NoteID), fact.CreatedAt, fact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fact: %w", err)
	}

	return nil
}

// GetFact retrieves a fact by ID.
func (s *Store) GetFact(ctx context.Context, id string) (*types.Fact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, person_id, category, label, value,
		       previous_values, note_id, created_at, updated_at
		FROM facts WHERE id = ?`, id)

	fact, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fact: %w", err)
	}

	return fact, nil
}

// ListFacts returns all facts for a person, oldest first.
func (s *Store) ListFacts(ctx context.Context, personID string) ([]*types.Fact, error) {
	return s.queryFacts(ctx, `
		SELECT id, person_id, category, label, value,
		       previous_values, note_id, created_at, updated_at
		FROM facts WHERE person_id = ? ORDER BY created_at ASC`, personID)
}

// ListFactsByCategory returns a person's facts of one category, oldest first.
func (s *Store) ListFactsByCategory(ctx context.Context, personID string, category types.FactCategory) ([]*types.Fact, error) {
	return s.queryFacts(ctx, `
		SELECT id, person_id, category, label, value,
		       previous_values, note_id, created_at, updated_at
		FROM facts WHERE person_id = ? AND category = ? ORDER BY created_at ASC`,
		personID, string(category))
}

// UpdateFact persists the fact's current value and previous-value history.
func (s *Store) UpdateFact(ctx context.Context, fact *types.Fact) error {
	if fact == nil || fact.ID == "" {
		return fmt.Errorf("%w: fact ID is required", storage.ErrInvalidInput)
	}

	fact.UpdatedAt = time.Now()

	historyJSON, err := marshalHistory(fact.PreviousValues)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE facts SET
			label = ?, value = ?, previous_values = ?, note_id = ?, updated_at = ?
		WHERE id = ?`,
		fact.Label, fact.Value, historyJSON, nullString(fact.NoteID),
		fact.UpdatedAt, fact.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update fact: %w", err)
	}

	return checkAffected(result)
}

// DeleteFact removes a fact by ID.
func (s *Store) DeleteFact(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM facts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fact: %w", err)
	}
	return checkAffected(result)
}

func (s *Store) queryFacts(ctx context.Context, query string, args ...interface{}) ([]*types.Fact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var facts []*types.Fact
	for rows.Next() {
		fact, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate facts: %w", err)
	}

	return facts, nil
}

func scanFact(row scanner) (*types.Fact, error) {
	var (
		fact            types.Fact
		category        string
		history, noteID sql.NullString
	)

	err := row.Scan(
		&fact.ID, &fact.PersonID, &category, &fact.Label, &fact.Value,
		&history, &noteID, &fact.CreatedAt, &fact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fact.Category = types.FactCategory(category)
	fact.NoteID = noteID.String

	if history.Valid && history.String != "" {
		if err := json.Unmarshal([]byte(history.String), &fact.PreviousValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal previous values: %w", err)
		}
	}

	return &fact, nil
}

// marshalHistory encodes the previous-value history as a JSON array,
// returning NULL for empty history.
func marshalHistory(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal previous values: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
