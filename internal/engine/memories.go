package engine

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/rkeeling/kith/pkg/types"
)

// RecordMemories appends the selected episodic memories verbatim. No
// deduplication and no update path: memories are one-off historical records,
// unlike recurring-habit facts. A single failure does not abort the rest.
func (e *Engine) RecordMemories(ctx context.Context, personID, noteID string, candidates []types.CandidateMemory) []*types.Memory {
	var created []*types.Memory

	for _, candidate := range candidates {
		memory := &types.Memory{
			ID:          uuid.NewString(),
			PersonID:    personID,
			Description: candidate.Description,
			EventDate:   candidate.EventDate,
			IsShared:    candidate.IsShared,
			NoteID:      noteID,
		}
		if err := e.store.CreateMemory(ctx, memory); err != nil {
			log.Printf("engine: failed to record memory for person %s: %v", personID, err)
			continue
		}
		created = append(created, memory)
	}

	return created
}
