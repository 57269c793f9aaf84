package engine

import (
	"context"
	"testing"

	"github.com/rkeeling/kith/pkg/types"
)

func TestCreateTopicsSchedulesReminder(t *testing.T) {
	eng, store := newTestEngine(t)
	notifier := &fakeNotifier{}
	eng.notifier = notifier
	ctx := context.Background()
	person := newTestPerson(t, store, "Sophie")
	note := newTestNote(t, store, person.ID)

	candidates := []types.CandidateTopic{
		{Title: "surgery recovery", Context: "operation went well"},
		{Title: "job interview", Context: "big interview", EventDate: "next Tuesday"},
	}
	created, err := eng.CreateTopics(ctx, person.ID, note.ID, candidates)
	if err != nil {
		t.Fatalf("CreateTopics() failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d topics, want 2", len(created))
	}

	for _, topic := range created {
		if topic.Status != types.TopicActive {
			t.Errorf("topic %q status = %q, want active", topic.Title, topic.Status)
		}
		if topic.NoteID != note.ID {
			t.Errorf("topic %q NoteID = %q, want %q", topic.Title, topic.NoteID, note.ID)
		}
	}

	if len(notifier.scheduled) != 1 {
		t.Fatalf("scheduled %d reminders, want 1", len(notifier.scheduled))
	}
	if notifier.scheduled[0].Title != "job interview" {
		t.Errorf("reminder scheduled for %q, want the dated topic", notifier.scheduled[0].Title)
	}
	if notifier.scheduled[0].EventDate != "next Tuesday" {
		t.Errorf("EventDate = %q, stored verbatim free-form", notifier.scheduled[0].EventDate)
	}
}

func TestCreateTopicsReminderFailureKeepsTopic(t *testing.T) {
	eng, store := newTestEngine(t)
	eng.notifier = &fakeNotifier{err: context.DeadlineExceeded}
	ctx := context.Background()
	person := newTestPerson(t, store, "Sophie")
	note := newTestNote(t, store, person.ID)

	created, err := eng.CreateTopics(ctx, person.ID, note.ID, []types.CandidateTopic{
		{Title: "dated topic", EventDate: "tomorrow"},
	})
	if err != nil {
		t.Fatalf("CreateTopics() failed: %v", err)
	}
	if len(created) != 1 {
		t.Errorf("created %d topics, want 1 despite reminder failure", len(created))
	}
}

func TestApplyResolutions(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Paul")
	note := newTestNote(t, store, person.ID)

	created, err := eng.CreateTopics(ctx, person.ID, note.ID, []types.CandidateTopic{
		{Title: "surgery", Context: "scheduled for March"},
		{Title: "house move", Context: "looking at places"},
	})
	if err != nil {
		t.Fatalf("CreateTopics() failed: %v", err)
	}

	applied := eng.ApplyResolutions(ctx, person.ID, []types.TopicResolution{
		{TopicID: created[0].ID, Resolution: "went well"},
		{TopicID: "missing-topic", Resolution: "ignored"},
	})
	if applied != 1 {
		t.Errorf("applied = %d, want 1 (missing topic recovered, not fatal)", applied)
	}

	got, err := store.GetTopic(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("GetTopic() failed: %v", err)
	}
	if got.Status != types.TopicResolved {
		t.Errorf("Status = %q, want resolved", got.Status)
	}
	if got.Resolution != "went well" {
		t.Errorf("Resolution = %q, want %q", got.Resolution, "went well")
	}
	if got.ResolvedAt == nil {
		t.Error("ResolvedAt not stamped")
	}

	untouched, _ := store.GetTopic(ctx, created[1].ID)
	if untouched.Status != types.TopicActive {
		t.Errorf("unconfirmed topic status = %q, want active", untouched.Status)
	}
}

func TestApplyResolutionsSkipsForeignTopic(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	paul := newTestPerson(t, store, "Paul")
	paulNote := newTestNote(t, store, paul.ID)
	ines := newTestPerson(t, store, "Inès")
	inesNote := newTestNote(t, store, ines.ID)

	paulTopics, err := eng.CreateTopics(ctx, paul.ID, paulNote.ID, []types.CandidateTopic{
		{Title: "knee surgery"},
	})
	if err != nil {
		t.Fatalf("CreateTopics() failed: %v", err)
	}
	inesTopics, err := eng.CreateTopics(ctx, ines.ID, inesNote.ID, []types.CandidateTopic{
		{Title: "marathon training"},
	})
	if err != nil {
		t.Fatalf("CreateTopics() failed: %v", err)
	}

	// A stale or hallucinated ID pointing at another person's topic is
	// skipped, not resolved.
	applied := eng.ApplyResolutions(ctx, paul.ID, []types.TopicResolution{
		{TopicID: inesTopics[0].ID, Resolution: "done"},
		{TopicID: paulTopics[0].ID, Resolution: "healed"},
	})
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}

	foreign, err := store.GetTopic(ctx, inesTopics[0].ID)
	if err != nil {
		t.Fatalf("GetTopic() failed: %v", err)
	}
	if foreign.Status != types.TopicActive {
		t.Errorf("foreign topic status = %q, want untouched active", foreign.Status)
	}
	if foreign.Resolution != "" {
		t.Errorf("foreign topic resolution = %q, want empty", foreign.Resolution)
	}

	own, _ := store.GetTopic(ctx, paulTopics[0].ID)
	if own.Status != types.TopicResolved {
		t.Errorf("own topic status = %q, want resolved", own.Status)
	}
}

func TestTopicLifecycleClosure(t *testing.T) {
	// resolve → reopen → resolve leaves exactly one status and only the most
	// recent resolution.
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Paul")
	note := newTestNote(t, store, person.ID)

	created, err := eng.CreateTopics(ctx, person.ID, note.ID, []types.CandidateTopic{
		{Title: "knee injury"},
	})
	if err != nil {
		t.Fatalf("CreateTopics() failed: %v", err)
	}
	topicID := created[0].ID

	if err := eng.ResolveTopic(ctx, topicID, "healed"); err != nil {
		t.Fatalf("ResolveTopic() failed: %v", err)
	}
	first, _ := store.GetTopic(ctx, topicID)

	if err := eng.ReopenTopic(ctx, topicID); err != nil {
		t.Fatalf("ReopenTopic() failed: %v", err)
	}
	reopened, _ := store.GetTopic(ctx, topicID)
	if reopened.Status != types.TopicActive {
		t.Fatalf("Status after reopen = %q, want active", reopened.Status)
	}
	// Reopen keeps the stale resolution until the next resolve overwrites it.
	if reopened.Resolution != "healed" {
		t.Errorf("Resolution after reopen = %q, want retained %q", reopened.Resolution, "healed")
	}

	if err := eng.ResolveTopic(ctx, topicID, "flared up again, now fully recovered"); err != nil {
		t.Fatalf("second ResolveTopic() failed: %v", err)
	}
	final, _ := store.GetTopic(ctx, topicID)
	if final.Status != types.TopicResolved {
		t.Errorf("final Status = %q, want resolved", final.Status)
	}
	if final.Resolution != "flared up again, now fully recovered" {
		t.Errorf("final Resolution = %q, want only the most recent", final.Resolution)
	}
	if final.ResolvedAt == nil || first.ResolvedAt == nil {
		t.Fatal("ResolvedAt missing")
	}
	if final.ResolvedAt.Before(*first.ResolvedAt) {
		t.Error("final ResolvedAt predates the first resolve")
	}
}

func TestEditTopicRequiresActive(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Paul")
	note := newTestNote(t, store, person.ID)

	created, err := eng.CreateTopics(ctx, person.ID, note.ID, []types.CandidateTopic{
		{Title: "original title", Context: "original context"},
	})
	if err != nil {
		t.Fatalf("CreateTopics() failed: %v", err)
	}
	topicID := created[0].ID

	if err := eng.EditTopic(ctx, topicID, "edited title", "edited context"); err != nil {
		t.Fatalf("EditTopic() on active topic failed: %v", err)
	}

	if err := eng.ResolveTopic(ctx, topicID, "done"); err != nil {
		t.Fatalf("ResolveTopic() failed: %v", err)
	}
	if err := eng.EditTopic(ctx, topicID, "late edit", ""); err != ErrTopicNotActive {
		t.Errorf("EditTopic() on resolved topic = %v, want ErrTopicNotActive", err)
	}

	// Resolution text stays editable in any state.
	if err := eng.EditResolution(ctx, topicID, "done, with caveats"); err != nil {
		t.Fatalf("EditResolution() failed: %v", err)
	}
	got, _ := store.GetTopic(ctx, topicID)
	if got.Resolution != "done, with caveats" {
		t.Errorf("Resolution = %q, want edited text", got.Resolution)
	}
}

func TestRecordMemoriesVerbatim(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	person := newTestPerson(t, store, "Inès")
	note := newTestNote(t, store, person.ID)

	candidates := []types.CandidateMemory{
		{Description: "we went to that rooftop concert", EventDate: "last Friday", IsShared: true},
		{Description: "she ran her first marathon", IsShared: false},
		{Description: "we went to that rooftop concert", EventDate: "last Friday", IsShared: true},
	}
	created := eng.RecordMemories(ctx, person.ID, note.ID, candidates)

	// No deduplication: the repeated memory is stored twice.
	if len(created) != 3 {
		t.Fatalf("recorded %d memories, want 3", len(created))
	}

	stored, err := store.ListMemories(ctx, person.ID)
	if err != nil {
		t.Fatalf("ListMemories() failed: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("stored %d memories, want 3", len(stored))
	}
	for _, memory := range created {
		if memory.NoteID != note.ID {
			t.Errorf("memory NoteID = %q, want %q", memory.NoteID, note.ID)
		}
	}
}
