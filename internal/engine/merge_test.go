package engine

import (
	"context"
	"testing"

	"github.com/rkeeling/kith/pkg/types"
)

func TestPrefilterFactsDropsNoOpUpdates(t *testing.T) {
	candidates := []types.CandidateFact{
		{Category: types.CategoryRole, Label: "job", Value: "Engineer", Action: types.ActionUpdate, PreviousValue: "engineer"},
		{Category: types.CategoryRole, Label: "job", Value: "Manager", Action: types.ActionUpdate, PreviousValue: "Engineer"},
		{Category: types.CategoryHobby, Label: "hobby", Value: "climbing", Action: types.ActionAdd},
	}

	kept := PrefilterFacts(candidates)
	if len(kept) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(kept))
	}
	for _, c := range kept {
		if c.Action == types.ActionUpdate && c.Value == "Engineer" {
			t.Error("case-insensitive no-op update survived the pre-filter")
		}
	}
}

func TestMergeCumulativeDuplicateSkipped(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Thomas")
	note := newTestNote(t, store, person.ID)

	first := []types.CandidateFact{
		{Category: types.CategoryHobby, Label: "hobby", Value: "Climbing", Action: types.ActionAdd},
	}
	result, err := eng.MergeFacts(ctx, person.ID, note.ID, first)
	if err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}
	if len(result.Written) != 1 {
		t.Fatalf("Written = %d, want 1", len(result.Written))
	}

	// Same value, different casing: no second row.
	second := []types.CandidateFact{
		{Category: types.CategoryHobby, Label: "hobby", Value: "climbing", Action: types.ActionAdd},
	}
	result, err = eng.MergeFacts(ctx, person.ID, note.ID, second)
	if err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}
	if len(result.Written) != 0 || result.Skipped != 1 {
		t.Errorf("result = {Written:%d Skipped:%d}, want {0 1}", len(result.Written), result.Skipped)
	}

	facts, err := store.ListFactsByCategory(ctx, person.ID, types.CategoryHobby)
	if err != nil {
		t.Fatalf("ListFactsByCategory() failed: %v", err)
	}
	if len(facts) != 1 {
		t.Errorf("stored %d hobby facts, want 1", len(facts))
	}
}

func TestMergeCumulativeDistinctValuesAccumulate(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Thomas")
	note := newTestNote(t, store, person.ID)

	candidates := []types.CandidateFact{
		{Category: types.CategoryHobby, Label: "hobby", Value: "climbing", Action: types.ActionAdd},
		{Category: types.CategoryHobby, Label: "hobby", Value: "pottery", Action: types.ActionAdd},
	}
	result, err := eng.MergeFacts(ctx, person.ID, note.ID, candidates)
	if err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}
	if len(result.Written) != 2 {
		t.Errorf("Written = %d, want 2", len(result.Written))
	}
}

func TestMergeSingletonRollsHistory(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Marc")
	note := newTestNote(t, store, person.ID)

	initial := []types.CandidateFact{
		{Category: types.CategoryCompany, Label: "employer", Value: "Acme", Action: types.ActionAdd},
	}
	if _, err := eng.MergeFacts(ctx, person.ID, note.ID, initial); err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}

	update := []types.CandidateFact{
		{Category: types.CategoryCompany, Label: "employer", Value: "Globex", Action: types.ActionUpdate, PreviousValue: "Acme"},
	}
	result, err := eng.MergeFacts(ctx, person.ID, note.ID, update)
	if err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}
	if len(result.Written) != 1 {
		t.Fatalf("Written = %d, want 1", len(result.Written))
	}

	facts, err := store.ListFactsByCategory(ctx, person.ID, types.CategoryCompany)
	if err != nil {
		t.Fatalf("ListFactsByCategory() failed: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("stored %d company facts, want 1 (singleton)", len(facts))
	}
	fact := facts[0]
	if fact.Value != "Globex" {
		t.Errorf("Value = %q, want %q", fact.Value, "Globex")
	}
	if len(fact.PreviousValues) != 1 || fact.PreviousValues[0] != "Acme" {
		t.Errorf("PreviousValues = %v, want [Acme]", fact.PreviousValues)
	}
}

func TestMergeSingletonHistoryFromStoredRow(t *testing.T) {
	// The stored row supplies history even when the extraction service's
	// claimed previous value is wrong.
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Marc")
	note := newTestNote(t, store, person.ID)

	if _, err := eng.MergeFacts(ctx, person.ID, note.ID, []types.CandidateFact{
		{Category: types.CategoryLocation, Label: "city", Value: "Lyon", Action: types.ActionAdd},
	}); err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}

	if _, err := eng.MergeFacts(ctx, person.ID, note.ID, []types.CandidateFact{
		{Category: types.CategoryLocation, Label: "city", Value: "Nantes", Action: types.ActionUpdate, PreviousValue: "Paris"},
	}); err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}

	facts, err := store.ListFactsByCategory(ctx, person.ID, types.CategoryLocation)
	if err != nil {
		t.Fatalf("ListFactsByCategory() failed: %v", err)
	}
	if len(facts) != 1 || len(facts[0].PreviousValues) != 1 || facts[0].PreviousValues[0] != "Lyon" {
		t.Errorf("history = %v, want [Lyon] from the stored row", facts[0].PreviousValues)
	}
}

func TestMergeSingletonUnchangedSkipped(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Marc")
	note := newTestNote(t, store, person.ID)

	candidate := []types.CandidateFact{
		{Category: types.CategoryRole, Label: "job", Value: "Architect", Action: types.ActionAdd},
	}
	if _, err := eng.MergeFacts(ctx, person.ID, note.ID, candidate); err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}

	result, err := eng.MergeFacts(ctx, person.ID, note.ID, []types.CandidateFact{
		{Category: types.CategoryRole, Label: "job", Value: "architect", Action: types.ActionUpdate, PreviousValue: "something else"},
	})
	if err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}
	if len(result.Written) != 0 || result.Skipped != 1 {
		t.Errorf("result = {Written:%d Skipped:%d}, want {0 1}", len(result.Written), result.Skipped)
	}

	facts, _ := store.ListFactsByCategory(ctx, person.ID, types.CategoryRole)
	if len(facts) != 1 || len(facts[0].PreviousValues) != 0 {
		t.Errorf("unchanged singleton grew history: %v", facts[0].PreviousValues)
	}
}

func TestMergeNoOpIdempotence(t *testing.T) {
	// Re-merging an identical candidate set writes nothing.
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Nadia")
	note := newTestNote(t, store, person.ID)

	candidates := []types.CandidateFact{
		{Category: types.CategoryHobby, Label: "hobby", Value: "chess", Action: types.ActionAdd},
		{Category: types.CategoryCompany, Label: "employer", Value: "Initech", Action: types.ActionAdd},
		{Category: types.CategoryPet, Label: "pet", Value: "cat named Miso", Action: types.ActionAdd},
	}
	if _, err := eng.MergeFacts(ctx, person.ID, note.ID, candidates); err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}

	result, err := eng.MergeFacts(ctx, person.ID, note.ID, candidates)
	if err != nil {
		t.Fatalf("MergeFacts() failed: %v", err)
	}
	if len(result.Written) != 0 {
		t.Errorf("re-merge wrote %d facts, want 0", len(result.Written))
	}
	if result.Skipped != len(candidates) {
		t.Errorf("Skipped = %d, want %d", result.Skipped, len(candidates))
	}

	all, err := store.ListFacts(ctx, person.ID)
	if err != nil {
		t.Fatalf("ListFacts() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("stored %d facts, want 3", len(all))
	}
	for _, fact := range all {
		if len(fact.PreviousValues) != 0 {
			t.Errorf("fact %s/%s grew history on a no-op re-merge", fact.Category, fact.Label)
		}
	}
}
