package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// ClassifySuggestions resolves candidate group suggestions against existing
// groups ahead of review: found names carry the group ID ("existing"),
// unknown names stay ID-less and are created lazily at commit.
//
// Suggestions only apply on the new-person path. When a target person is
// already bound the extraction service is instructed not to produce them,
// and this engine additionally enforces it by returning nil.
func (e *Engine) ClassifySuggestions(ctx context.Context, suggestions []types.GroupSuggestion, personBound bool) ([]types.GroupSuggestion, error) {
	if personBound {
		return nil, nil
	}

	classified := make([]types.GroupSuggestion, 0, len(suggestions))
	for _, suggestion := range suggestions {
		name := strings.TrimSpace(suggestion.Name)
		if name == "" {
			continue
		}
		suggestion.Name = name

		group, err := e.store.GetGroupByName(ctx, name)
		switch {
		case err == nil:
			suggestion.GroupID = group.ID
		case errors.Is(err, storage.ErrNotFound):
			suggestion.GroupID = ""
		default:
			return nil, err
		}

		classified = append(classified, suggestion)
	}

	return classified, nil
}

// EnsureGroup returns the group with the given name, creating it when
// absent. Lookup is case-insensitive; a racing create that loses the
// uniqueness check falls back to the winner's row.
func (e *Engine) EnsureGroup(ctx context.Context, name string) (*types.Group, error) {
	group, err := e.store.GetGroupByName(ctx, name)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	group = &types.Group{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	if createErr := e.store.CreateGroup(ctx, group); createErr != nil {
		if errors.Is(createErr, storage.ErrDuplicate) {
			return e.store.GetGroupByName(ctx, name)
		}
		return nil, createErr
	}

	return group, nil
}
