package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// CommitRequest carries the human's final selections out of review. What the
// human deselected or discarded simply never appears here.
type CommitRequest struct {
	// PersonID binds the commit to an existing person. Empty means the
	// new-person path: FirstName (and optionally LastName, Nickname) are used
	// to create the record during step 1.
	PersonID  string `json:"person_id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Nickname  string `json:"nickname,omitempty"`

	// Transcript is the raw note text, persisted as the provenance anchor.
	Transcript string `json:"transcript"`

	Facts       []types.CandidateFact   `json:"facts,omitempty"`
	Topics      []types.CandidateTopic  `json:"topics,omitempty"`
	Resolutions []types.TopicResolution `json:"resolutions,omitempty"`
	Memories    []types.CandidateMemory `json:"memories,omitempty"`

	// Groups holds accepted group names, suggested or free-typed. Only
	// honored on the new-person path.
	Groups []types.GroupSuggestion `json:"groups,omitempty"`

	// ContactInfo carries directly-accepted phone/email/birthday fields.
	ContactInfo *storage.ContactInfoUpdate `json:"-"`

	Summary        string `json:"summary,omitempty"`
	SummaryChanged bool   `json:"summary_changed,omitempty"`
}

// CommitReport records what a commit sequence actually did. Errors collects
// recovered per-step failures; a non-empty slice still means the commit ran
// to completion.
type CommitReport struct {
	PersonID      string `json:"person_id"`
	PersonCreated bool   `json:"person_created"`
	NoteID        string `json:"note_id,omitempty"`

	FactsWritten       int `json:"facts_written"`
	FactsSkipped       int `json:"facts_skipped"`
	TopicsCreated      int `json:"topics_created"`
	ResolutionsApplied int `json:"resolutions_applied"`
	MemoriesRecorded   int `json:"memories_recorded"`
	GroupsBound        int `json:"groups_bound"`

	Errors []string `json:"errors,omitempty"`
}

func (r *CommitReport) recover(step string, err error) {
	log.Printf("engine: commit step %s failed, continuing: %v", step, err)
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", step, err))
}

// Commit applies a reviewed selection to durable storage in a fixed order.
// The sequence is deliberately not transactional: once the person exists,
// each later step recovers locally from failure and the remaining steps
// still run, because the note anchors the attempt and partial data beats
// none. Only person creation (new-person path) aborts the whole commit.
func (e *Engine) Commit(ctx context.Context, req *CommitRequest) (*CommitReport, error) {
	report := &CommitReport{}

	// Step 1: create or confirm the person.
	person, created, err := e.ensurePerson(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resolving person: %w", err)
	}
	report.PersonID = person.ID
	report.PersonCreated = created

	// Step 2: groups, new-person path only.
	if created {
		report.GroupsBound = e.bindGroups(ctx, person.ID, req.Groups, report)
	}

	// Step 3: directly-accepted contact info.
	if req.ContactInfo != nil {
		if err := e.store.UpdateContactInfo(ctx, person.ID, *req.ContactInfo); err != nil {
			report.recover("contact-info", err)
		}
	}

	// Step 4: persist the note. Everything after this references its ID;
	// if the note itself fails the dependent steps are skipped, but the
	// non-provenance steps (last contact, summary) still run.
	note := &types.Note{
		ID:         uuid.NewString(),
		PersonID:   person.ID,
		Transcript: req.Transcript,
	}
	if err := e.store.CreateNote(ctx, note); err != nil {
		report.recover("note", err)
		note = nil
	} else {
		report.NoteID = note.ID
	}

	if note != nil {
		// Step 5: fact merge.
		if merge, err := e.MergeFacts(ctx, person.ID, note.ID, req.Facts); err != nil {
			report.recover("facts", err)
		} else {
			report.FactsWritten = len(merge.Written)
			report.FactsSkipped = merge.Skipped
			if merge.Failed > 0 {
				report.Errors = append(report.Errors,
					fmt.Sprintf("facts: %d write(s) failed", merge.Failed))
			}
		}

		// Step 6: new topics, reminders scheduled as a side effect.
		if topics, err := e.CreateTopics(ctx, person.ID, note.ID, req.Topics); err != nil {
			report.recover("topics", err)
		} else {
			report.TopicsCreated = len(topics)
		}

		// Step 7: confirmed topic resolutions.
		report.ResolutionsApplied = e.ApplyResolutions(ctx, person.ID, req.Resolutions)

		// Step 8: memories.
		report.MemoriesRecorded = len(e.RecordMemories(ctx, person.ID, note.ID, req.Memories))
	}

	// Step 9: last contact.
	if err := e.store.TouchLastContact(ctx, person.ID, time.Now().UTC()); err != nil {
		report.recover("last-contact", err)
	}

	// Step 10: summary. Always for a new person, only on a flagged material
	// change for an existing one.
	if req.Summary != "" && (created || req.SummaryChanged) {
		if err := e.store.UpdateSummary(ctx, person.ID, req.Summary); err != nil {
			report.recover("summary", err)
		}
	}

	// Step 11: fire-and-forget starter regeneration. Never blocks, never
	// rolls anything back, never surfaces failure.
	e.EnqueueStarters(person.ID)

	return report, nil
}

// ensurePerson implements commit step 1. The existing-person path is a
// confirming read; the new-person path creates the record and is the only
// step whose failure aborts the commit.
func (e *Engine) ensurePerson(ctx context.Context, req *CommitRequest) (*types.Person, bool, error) {
	if req.PersonID != "" {
		person, err := e.store.GetPerson(ctx, req.PersonID)
		if err != nil {
			return nil, false, err
		}
		return person, false, nil
	}

	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return nil, false, fmt.Errorf("%w: first name is required for a new person", storage.ErrInvalidInput)
	}

	person := &types.Person{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  strings.TrimSpace(req.LastName),
		Nickname:  strings.TrimSpace(req.Nickname),
	}
	if err := e.store.CreatePerson(ctx, person); err != nil {
		return nil, false, err
	}

	return person, true, nil
}

// bindGroups implements commit step 2: look up or lazily create each
// accepted group, then bind membership. Per-group failures are recovered.
func (e *Engine) bindGroups(ctx context.Context, personID string, accepted []types.GroupSuggestion, report *CommitReport) int {
	bound := 0
	for _, suggestion := range accepted {
		group, err := e.resolveGroup(ctx, suggestion)
		if err != nil {
			report.recover("groups", fmt.Errorf("group %q: %w", suggestion.Name, err))
			continue
		}
		if err := e.store.AddPersonToGroup(ctx, personID, group.ID); err != nil {
			report.recover("groups", fmt.Errorf("binding group %q: %w", suggestion.Name, err))
			continue
		}
		bound++
	}
	return bound
}

func (e *Engine) resolveGroup(ctx context.Context, suggestion types.GroupSuggestion) (*types.Group, error) {
	if suggestion.GroupID != "" {
		group, err := e.store.GetGroup(ctx, suggestion.GroupID)
		if err == nil {
			return group, nil
		}
		// A stale ID from classification falls back to name resolution.
		log.Printf("engine: group %s from classification not found, resolving by name", suggestion.GroupID)
	}
	return e.EnsureGroup(ctx, suggestion.Name)
}
