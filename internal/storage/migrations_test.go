package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openMigrationDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeMigration(t *testing.T, dir, name, ddl string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(ddl), 0o644); err != nil {
		t.Fatalf("failed to write migration: %v", err)
	}
}

func TestMigrationManagerUpAndDown(t *testing.T) {
	db := openMigrationDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "001_create_widgets.up.sql",
		"CREATE TABLE widgets (id TEXT PRIMARY KEY);")
	writeMigration(t, dir, "001_create_widgets.down.sql",
		"DROP TABLE widgets;")
	writeMigration(t, dir, "002_add_name.up.sql",
		"ALTER TABLE widgets ADD COLUMN name TEXT;")
	writeMigration(t, dir, "002_add_name.down.sql",
		"ALTER TABLE widgets DROP COLUMN name;")

	mgr, err := NewMigrationManager(db, dir)
	if err != nil {
		t.Fatalf("NewMigrationManager failed: %v", err)
	}

	if _, err := mgr.Version(); !errors.Is(err, ErrNoMigration) {
		t.Errorf("expected ErrNoMigration before Up, got %v", err)
	}

	if err := mgr.Up(); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	version, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	if _, err := db.Exec("INSERT INTO widgets (id, name) VALUES ('w1', 'spanner')"); err != nil {
		t.Errorf("migrated schema unusable: %v", err)
	}

	// Re-running is a no-op.
	if err := mgr.Up(); err != nil {
		t.Fatalf("second Up failed: %v", err)
	}

	if err := mgr.Down(); err != nil {
		t.Fatalf("Down failed: %v", err)
	}
	if _, err := mgr.Version(); !errors.Is(err, ErrNoMigration) {
		t.Errorf("expected ErrNoMigration after Down, got %v", err)
	}
	if _, err := db.Exec("SELECT * FROM widgets"); err == nil {
		t.Error("expected widgets table dropped after Down")
	}
}

func TestMigrationManagerRequiresDir(t *testing.T) {
	db := openMigrationDB(t)
	if _, err := NewMigrationManager(db, "/does/not/exist"); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := NewMigrationManager(nil, t.TempDir()); err == nil {
		t.Error("expected error for nil database")
	}
}

func TestMigrationManagerIgnoresStrayFiles(t *testing.T) {
	db := openMigrationDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "001_create_widgets.up.sql",
		"CREATE TABLE widgets (id TEXT PRIMARY KEY);")
	writeMigration(t, dir, "README.md", "not a migration")
	writeMigration(t, dir, "notes.sql", "also not a migration")
	writeMigration(t, dir, "002_orphan.down.sql", "DROP TABLE widgets;")

	mgr, err := NewMigrationManager(db, dir)
	if err != nil {
		t.Fatalf("NewMigrationManager failed: %v", err)
	}
	if err := mgr.Up(); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	version, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
}

func TestRepoMigrationsApply(t *testing.T) {
	db := openMigrationDB(t)

	mgr, err := NewMigrationManager(db, "../../migrations")
	if err != nil {
		t.Fatalf("NewMigrationManager failed: %v", err)
	}
	if err := mgr.Up(); err != nil {
		t.Fatalf("applying repo migrations failed: %v", err)
	}

	version, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version < 2 {
		t.Errorf("expected at least version 2, got %d", version)
	}

	// The rebuilt facts table must still accept rows.
	if _, err := db.Exec("INSERT INTO persons (id, first_name) VALUES ('p1', 'Ana')"); err != nil {
		t.Fatalf("insert person failed: %v", err)
	}
	if _, err := db.Exec(
		"INSERT INTO facts (id, person_id, category, label, value) VALUES ('f1', 'p1', 'company', 'Employer', 'Ecorp')",
	); err != nil {
		t.Errorf("insert fact after rebuild failed: %v", err)
	}
}
