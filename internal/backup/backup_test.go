package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rkeeling/kith/internal/storage/sqlite"
	"github.com/rkeeling/kith/pkg/types"
)

// newRosterDB creates a real roster database file with one person in it.
func newRosterDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kith.db")
	store, err := sqlite.NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	now := time.Now()
	err = store.CreatePerson(context.Background(), &types.Person{
		ID:        "p1",
		FirstName: "Ana",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to seed person: %v", err)
	}
	return path
}

func TestSnapshotAndRestore(t *testing.T) {
	dbPath := newRosterDB(t)
	dir := t.TempDir()

	s, err := NewSnapshotter(Config{DBPath: dbPath, Dir: dir, Verify: true})
	if err != nil {
		t.Fatalf("NewSnapshotter failed: %v", err)
	}

	snapshot, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snapshot.Size == 0 {
		t.Error("expected non-empty snapshot")
	}
	if err := VerifySnapshot(snapshot.Path); err != nil {
		t.Errorf("snapshot failed verification: %v", err)
	}

	// Restore into a fresh location and check the data survived.
	restored := filepath.Join(t.TempDir(), "restored.db")
	if err := s.Restore(snapshot.Path, restored); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	store, err := sqlite.NewStore(restored)
	if err != nil {
		t.Fatalf("failed to open restored database: %v", err)
	}
	defer store.Close()

	person, err := store.GetPerson(context.Background(), "p1")
	if err != nil {
		t.Fatalf("restored database missing person: %v", err)
	}
	if person.FirstName != "Ana" {
		t.Errorf("expected Ana, got %q", person.FirstName)
	}
}

func TestSnapshotPrunesToRetention(t *testing.T) {
	dbPath := newRosterDB(t)
	dir := t.TempDir()

	s, err := NewSnapshotter(Config{DBPath: dbPath, Dir: dir, Keep: 2, Verify: true})
	if err != nil {
		t.Fatalf("NewSnapshotter failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		if _, err := s.Snapshot(); err != nil {
			t.Fatalf("Snapshot %d failed: %v", i, err)
		}
	}

	snapshots, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Errorf("expected 2 snapshots after pruning, got %d", len(snapshots))
	}
}

func TestSnapshotMissingDatabase(t *testing.T) {
	s, err := NewSnapshotter(Config{DBPath: "/does/not/exist.db", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewSnapshotter failed: %v", err)
	}
	if _, err := s.Snapshot(); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	if err := os.WriteFile(path, []byte("not a database"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := VerifySnapshot(path); err == nil {
		t.Error("expected verification failure for garbage file")
	}
}

func TestNewSnapshotterValidation(t *testing.T) {
	if _, err := NewSnapshotter(Config{Dir: t.TempDir()}); err == nil {
		t.Error("expected error for missing database path")
	}
	if _, err := NewSnapshotter(Config{DBPath: "x.db"}); err == nil {
		t.Error("expected error for missing snapshot directory")
	}
}
