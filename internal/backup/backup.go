// Package backup snapshots the roster database. Snapshots are taken with
// SQLite's VACUUM INTO, which produces a consistent point-in-time copy even
// under WAL mode, and are verified with an integrity check before they count.
package backup

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Config configures a Snapshotter.
type Config struct {
	// DBPath is the SQLite database file to snapshot.
	DBPath string

	// Dir is where snapshots are written.
	Dir string

	// Keep is how many snapshots to retain, newest first (default: 10).
	Keep int

	// Verify runs an integrity check on each new snapshot (default on via
	// NewSnapshotter).
	Verify bool
}

// Snapshot is one stored database copy.
type Snapshot struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

// Snapshotter creates, lists, prunes, and restores roster snapshots.
type Snapshotter struct {
	dbPath string
	dir    string
	keep   int
	verify bool
}

// NewSnapshotter validates the config and prepares the snapshot directory.
func NewSnapshotter(cfg Config) (*Snapshotter, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 10
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Snapshotter{
		dbPath: cfg.DBPath,
		dir:    cfg.Dir,
		keep:   cfg.Keep,
		verify: cfg.Verify,
	}, nil
}

// Snapshot writes a new snapshot and prunes old ones down to the retention
// count.
func (s *Snapshotter) Snapshot() (*Snapshot, error) {
	if _, err := os.Stat(s.dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}

	// Microseconds keep names unique under rapid manual invocation.
	name := fmt.Sprintf("kith-%s.db", time.Now().Format("20060102-150405.000000"))
	path := filepath.Join(s.dir, name)

	if err := vacuumInto(s.dbPath, path); err != nil {
		return nil, err
	}

	if s.verify {
		if err := VerifySnapshot(path); err != nil {
			_ = os.Remove(path)
			return nil, err
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}

	if err := s.prune(); err != nil {
		return nil, err
	}

	return &Snapshot{Path: path, Timestamp: info.ModTime(), Size: info.Size()}, nil
}

// List returns stored snapshots, newest first.
func (s *Snapshotter) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var snapshots []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Path:      filepath.Join(s.dir, entry.Name()),
			Timestamp: info.ModTime(),
			Size:      info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// Restore copies a verified snapshot over the target path. The database must
// not be in use.
func (s *Snapshotter) Restore(snapshotPath, targetPath string) error {
	if err := VerifySnapshot(snapshotPath); err != nil {
		return fmt.Errorf("snapshot verification failed: %w", err)
	}

	src, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create target file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy snapshot: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return fmt.Errorf("failed to sync target file: %w", err)
	}

	return VerifySnapshot(targetPath)
}

// prune removes the oldest snapshots beyond the retention count.
func (s *Snapshotter) prune() error {
	snapshots, err := s.List()
	if err != nil {
		return err
	}
	if len(snapshots) <= s.keep {
		return nil
	}

	var lastErr error
	for _, snapshot := range snapshots[s.keep:] {
		if err := os.Remove(snapshot.Path); err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to prune some snapshots: %w", lastErr)
	}
	return nil
}

// vacuumInto produces a consistent copy of the live database.
func vacuumInto(sourcePath, destPath string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", sourcePath))
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping source database: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	return nil
}

// VerifySnapshot runs SQLite's integrity check against a snapshot file.
func VerifySnapshot(path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
