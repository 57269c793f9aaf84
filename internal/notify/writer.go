// Package notify provides cross-process event notification using
// filesystem events: commits and starter updates are announced as small
// JSON files that any watching process (typically the web UI push hub)
// consumes and deletes.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event types emitted by the engine's collaborators.
const (
	EventCommit          = "commit"
	EventStartersUpdated = "starters_updated"
	EventReminder        = "reminder"
)

// Event is the payload written to an event file.
type Event struct {
	Type     string `json:"type"`
	PersonID string `json:"person_id"`

	// Detail carries type-specific text: the topic title for reminders,
	// empty otherwise.
	Detail string `json:"detail,omitempty"`

	Time int64 `json:"time"`
}

// EventWriter writes notification event files to a shared directory.
type EventWriter struct {
	dir string
}

// NewEventWriter creates a writer that emits events to the given directory.
func NewEventWriter(dir string) *EventWriter {
	return &EventWriter{dir: dir}
}

// Notify writes an event file. Safe to call concurrently. Errors are
// returned but callers treat them as non-fatal.
func (w *EventWriter) Notify(eventType, personID, detail string) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("notify: mkdir %s: %w", w.dir, err)
	}
	evt := Event{
		Type:     eventType,
		PersonID: personID,
		Detail:   detail,
		Time:     time.Now().UnixNano(),
	}
	data, _ := json.Marshal(evt)
	filename := fmt.Sprintf("%d-%s.event", evt.Time, sanitizeID(personID))
	return os.WriteFile(filepath.Join(w.dir, filename), data, 0o600)
}

// sanitizeID replaces characters unsafe for filenames.
func sanitizeID(id string) string {
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		if id[i] == '/' || id[i] == ':' {
			out[i] = '_'
		} else {
			out[i] = id[i]
		}
	}
	return string(out)
}
