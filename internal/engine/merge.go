package engine

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/rkeeling/kith/internal/normalize"
	"github.com/rkeeling/kith/pkg/types"
)

// MergeResult summarises a fact merge pass. Skips are expected steady-state
// behaviour, not failures.
type MergeResult struct {
	// Written holds the facts actually created or updated.
	Written []*types.Fact

	// Skipped counts no-op candidates (duplicate cumulative value, unchanged
	// singleton value).
	Skipped int

	// Failed counts candidates whose storage write failed. Failures are
	// logged and do not abort the remaining candidates.
	Failed int
}

// PrefilterFacts drops update candidates whose claimed previous value equals
// the new value case-insensitively. Such entries are no-ops and must not be
// surfaced for review. Runs before the human sees the candidate.
func PrefilterFacts(candidates []types.CandidateFact) []types.CandidateFact {
	kept := make([]types.CandidateFact, 0, len(candidates))
	for _, c := range candidates {
		if c.Action == types.ActionUpdate && normalize.Equal(c.PreviousValue, c.Value) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// MergeFacts applies the per-category merge policy for each selected
// candidate fact against the person's existing facts. noteID is recorded as
// provenance on every write. Individual write failures are logged and
// skipped; the remaining candidates still run.
func (e *Engine) MergeFacts(ctx context.Context, personID, noteID string, candidates []types.CandidateFact) (*MergeResult, error) {
	result := &MergeResult{}

	for _, candidate := range candidates {
		var err error
		if candidate.Category.IsCumulative() {
			err = e.mergeCumulative(ctx, personID, noteID, candidate, result)
		} else {
			err = e.mergeSingleton(ctx, personID, noteID, candidate, result)
		}
		if err != nil {
			log.Printf("engine: fact merge failed for person %s category %s: %v",
				personID, candidate.Category, err)
			result.Failed++
		}
	}

	return result, nil
}

// mergeCumulative creates a new fact row unless a case-insensitive-equal
// value already exists in the category.
func (e *Engine) mergeCumulative(ctx context.Context, personID, noteID string, candidate types.CandidateFact, result *MergeResult) error {
	existing, err := e.store.ListFactsByCategory(ctx, personID, candidate.Category)
	if err != nil {
		return err
	}

	for _, fact := range existing {
		if normalize.Equal(fact.Value, candidate.Value) {
			log.Printf("engine: skipping duplicate %s %q for person %s",
				candidate.Category, candidate.Value, personID)
			result.Skipped++
			return nil
		}
	}

	fact := &types.Fact{
		ID:       uuid.NewString(),
		PersonID: personID,
		Category: candidate.Category,
		Label:    candidate.Label,
		Value:    candidate.Value,
		NoteID:   noteID,
	}
	if err := e.store.CreateFact(ctx, fact); err != nil {
		return err
	}

	result.Written = append(result.Written, fact)
	return nil
}

// mergeSingleton keeps one current value per (category, label): unchanged
// values are skipped, changed values roll the old one into history.
func (e *Engine) mergeSingleton(ctx context.Context, personID, noteID string, candidate types.CandidateFact, result *MergeResult) error {
	existing, err := e.store.ListFactsByCategory(ctx, personID, candidate.Category)
	if err != nil {
		return err
	}

	var current *types.Fact
	for _, fact := range existing {
		if normalize.Equal(fact.Label, candidate.Label) {
			current = fact
			break
		}
	}

	if current == nil {
		fact := &types.Fact{
			ID:       uuid.NewString(),
			PersonID: personID,
			Category: candidate.Category,
			Label:    candidate.Label,
			Value:    candidate.Value,
			NoteID:   noteID,
		}
		if err := e.store.CreateFact(ctx, fact); err != nil {
			return err
		}
		result.Written = append(result.Written, fact)
		return nil
	}

	if normalize.Equal(current.Value, candidate.Value) {
		log.Printf("engine: skipping unchanged %s/%s for person %s",
			candidate.Category, candidate.Label, personID)
		result.Skipped++
		return nil
	}

	// The stored row is the source of truth for history, not the extraction
	// service's claimed previous value.
	current.PreviousValues = append(current.PreviousValues, current.Value)
	current.Value = candidate.Value
	current.NoteID = noteID
	if err := e.store.UpdateFact(ctx, current); err != nil {
		return err
	}

	result.Written = append(result.Written, current)
	return nil
}
