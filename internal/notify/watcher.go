package notify

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// sweepInterval bounds how long an event file written while its create
// notification was missed (watcher restart, rename-into-place) can sit
// undelivered.
const sweepInterval = 5 * time.Second

// EventWatcher delivers event files from a shared directory to a callback.
// Files are consumed exactly once per process: whichever watcher reads one
// first removes it.
type EventWatcher struct {
	dir      string
	callback func(event Event)
	fsw      *fsnotify.Watcher
	stop     chan struct{}
	done     chan struct{}
}

// NewEventWatcher creates a watcher for the given events directory.
func NewEventWatcher(dir string, callback func(event Event)) *EventWatcher {
	return &EventWatcher{
		dir:      dir,
		callback: callback,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start creates the directory if needed and begins delivery. Files already
// present are delivered first. Call Stop() to clean up.
func (ew *EventWatcher) Start() error {
	if err := os.MkdirAll(ew.dir, 0o700); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(ew.dir); err != nil {
		_ = fsw.Close()
		return err
	}
	ew.fsw = fsw

	go ew.run()
	log.Printf("notify: watching %s for events", ew.dir)
	return nil
}

// Stop shuts down the watcher and waits for the delivery loop to exit.
func (ew *EventWatcher) Stop() {
	close(ew.stop)
	if ew.fsw != nil {
		_ = ew.fsw.Close()
	}
	<-ew.done
}

func (ew *EventWatcher) run() {
	defer close(ew.done)

	// Backlog from before the watch was established.
	ew.sweep()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ew.stop:
			return
		case evt, ok := <-ew.fsw.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 && strings.HasSuffix(evt.Name, ".event") {
				ew.consume(evt.Name)
			}
		case err, ok := <-ew.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		case <-ticker.C:
			ew.sweep()
		}
	}
}

// sweep delivers every event file currently in the directory.
func (ew *EventWatcher) sweep() {
	matches, err := filepath.Glob(filepath.Join(ew.dir, "*.event"))
	if err != nil {
		return
	}
	for _, path := range matches {
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}
		ew.consume(path)
	}
}

// consume reads, removes, and dispatches one event file. A read failure
// means another process got there first.
func (ew *EventWatcher) consume(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Another process consumed it first.
		return
	}
	_ = os.Remove(path)

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		log.Printf("notify: invalid event file %s: %v", filepath.Base(path), err)
		return
	}
	if event.PersonID == "" || ew.callback == nil {
		return
	}
	ew.callback(event)
}
