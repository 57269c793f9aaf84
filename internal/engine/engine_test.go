package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/rkeeling/kith/internal/storage/sqlite"
	"github.com/rkeeling/kith/pkg/types"
)

// fakeNotifier records scheduled reminders.
type fakeNotifier struct {
	scheduled []*types.Topic
	err       error
}

func (f *fakeNotifier) ScheduleReminder(_ context.Context, topic *types.Topic) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, topic)
	return nil
}

// fakeStarters returns a fixed suggestion string.
type fakeStarters struct {
	text string
	err  error
}

func (f *fakeStarters) GenerateStarters(context.Context, *types.Person, []*types.Fact, []*types.Topic) (string, error) {
	return f.text, f.err
}

func newTestEngine(t *testing.T) (*Engine, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	eng, err := New(store, &fakeNotifier{}, nil, Config{})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return eng, store
}

func newTestPerson(t *testing.T, store *sqlite.Store, firstName string) *types.Person {
	t.Helper()
	person := &types.Person{
		ID:        uuid.NewString(),
		FirstName: firstName,
	}
	if err := store.CreatePerson(context.Background(), person); err != nil {
		t.Fatalf("CreatePerson() failed: %v", err)
	}
	return person
}

func newTestNote(t *testing.T, store *sqlite.Store, personID string) *types.Note {
	t.Helper()
	note := &types.Note{
		ID:         uuid.NewString(),
		PersonID:   personID,
		Transcript: "test transcript",
	}
	if err := store.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("CreateNote() failed: %v", err)
	}
	return note
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.WorkerCount != 1 || cfg.QueueSize != 16 {
		t.Errorf("defaults = (%d, %d), want (1, 16)", cfg.WorkerCount, cfg.QueueSize)
	}

	cfg = Config{WorkerCount: 9}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for excessive worker count")
	}
}
