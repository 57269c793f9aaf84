package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// CreateGroup inserts a new group. Group names are unique case-insensitively;
// a conflicting name returns ErrDuplicate.
func (s *Store) CreateGroup(ctx context.Context, group *types.Group) error {
	if group == nil {
		return storage.ErrInvalidInput
	}
	if group.ID == "" || group.Name == "" {
		return fmt.Errorf("%w: group ID and name are required", storage.ErrInvalidInput)
	}

	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_at) VALUES ($1, $2, $3)`,
		group.ID, group.Name, group.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: group %q", storage.ErrDuplicate, group.Name)
		}
		return fmt.Errorf("failed to insert group: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, id string) (*types.Group, error) {
	var group types.Group
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM groups WHERE id = $1`, id).
		Scan(&group.ID, &group.Name, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

// GetGroupByName performs a case-insensitive name lookup.
func (s *Store) GetGroupByName(ctx context.Context, name string) (*types.Group, error) {
	var group types.Group
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM groups WHERE LOWER(name) = LOWER($1)`,
		strings.TrimSpace(name)).
		Scan(&group.ID, &group.Name, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

// ListGroups returns all groups sorted by name.
func (s *Store) ListGroups(ctx context.Context) ([]*types.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM groups ORDER BY LOWER(name) ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	return collectGroups(rows)
}

// AddPersonToGroup binds membership; re-adding is a no-op.
func (s *Store) AddPersonToGroup(ctx context.Context, personID, groupID string) error {
	if personID == "" || groupID == "" {
		return fmt.Errorf("%w: person ID and group ID are required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO person_groups (person_id, group_id) VALUES ($1, $2)
		ON CONFLICT (person_id, group_id) DO NOTHING`,
		personID, groupID)
	if err != nil {
		return fmt.Errorf("failed to add person to group: %w", err)
	}

	return nil
}

// ListGroupsForPerson returns the groups a person belongs to, sorted by name.
func (s *Store) ListGroupsForPerson(ctx context.Context, personID string) ([]*types.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.created_at
		FROM groups g
		JOIN person_groups pg ON pg.group_id = g.id
		WHERE pg.person_id = $1
		ORDER BY LOWER(g.name) ASC`, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to query person groups: %w", err)
	}
	defer rows.Close()

	return collectGroups(rows)
}

func collectGroups(rows *sql.Rows) ([]*types.Group, error) {
	var groups []*types.Group
	for rows.Next() {
		var group types.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}
