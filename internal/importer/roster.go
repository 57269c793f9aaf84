package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rkeeling/kith/internal/normalize"
	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/pkg/types"
)

// ImportResult is the final summary produced by a completed import job.
type ImportResult struct {
	JobID          string        `json:"job_id"`
	FilesFound     int           `json:"files_found"`
	FilesProcessed int           `json:"files_processed"`
	FilesSkipped   int           `json:"files_skipped"`
	FilesFailed    int           `json:"files_failed"`
	PersonsCreated int           `json:"persons_created"`
	FactsCreated   int           `json:"facts_created"`
	GroupsBound    int           `json:"groups_bound"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"duration_ms"`
}

// ImportProgress carries live progress data for a running job.
type ImportProgress struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"` // "running" | "complete" | "failed"
	FilesFound     int    `json:"files_found"`
	FilesProcessed int    `json:"files_processed"`
	FilesTotal     int    `json:"files_total"`
	CurrentFile    string `json:"current_file,omitempty"`
	Message        string `json:"message,omitempty"`
}

// ImportJob tracks the state of an async import operation.
type ImportJob struct {
	mu       sync.RWMutex
	Progress ImportProgress
	Result   *ImportResult
	Done     chan struct{}
}

func newImportJob(jobID string) *ImportJob {
	return &ImportJob{
		Progress: ImportProgress{
			JobID:  jobID,
			Status: "running",
		},
		Done: make(chan struct{}),
	}
}

// GetProgress returns a snapshot of the current import progress.
func (j *ImportJob) GetProgress() ImportProgress {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Progress
}

// RosterImporter walks a directory of person cards and creates roster
// entries from them. Files whose name already matches an existing person
// (case-insensitive first plus last name) are skipped, so re-running an
// import does not duplicate the roster.
type RosterImporter struct {
	store storage.Store

	// mu protects jobs.
	mu   sync.RWMutex
	jobs map[string]*ImportJob
}

// NewRosterImporter creates an importer writing to the given store.
func NewRosterImporter(store storage.Store) *RosterImporter {
	return &RosterImporter{
		store: store,
		jobs:  make(map[string]*ImportJob),
	}
}

// StartImport begins an asynchronous import of the directory at dirPath.
// It returns a job ID for use with GetJobProgress / GetJobResult.
func (imp *RosterImporter) StartImport(ctx context.Context, dirPath string) (string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return "", fmt.Errorf("cannot access directory %q: %w", dirPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dirPath)
	}

	jobID := uuid.NewString()
	job := newImportJob(jobID)

	imp.mu.Lock()
	imp.jobs[jobID] = job
	imp.mu.Unlock()

	go func() {
		result := imp.runImport(ctx, job, dirPath)
		job.mu.Lock()
		job.Result = result
		if len(result.Errors) > 0 && result.FilesProcessed == 0 {
			job.Progress.Status = "failed"
			job.Progress.Message = "Import failed"
		} else {
			job.Progress.Status = "complete"
			job.Progress.Message = fmt.Sprintf("Imported %d persons from %d files",
				result.PersonsCreated, result.FilesProcessed)
		}
		job.mu.Unlock()
		close(job.Done)
	}()

	return jobID, nil
}

// GetJobProgress returns the live progress for a job, or false if unknown.
func (imp *RosterImporter) GetJobProgress(jobID string) (ImportProgress, bool) {
	imp.mu.RLock()
	job, ok := imp.jobs[jobID]
	imp.mu.RUnlock()
	if !ok {
		return ImportProgress{}, false
	}
	return job.GetProgress(), true
}

// GetJobResult returns the final result for a completed job.
// Returns nil if the job is still running or not found.
func (imp *RosterImporter) GetJobResult(jobID string) *ImportResult {
	imp.mu.RLock()
	job, ok := imp.jobs[jobID]
	imp.mu.RUnlock()
	if !ok {
		return nil
	}
	job.mu.RLock()
	defer job.mu.RUnlock()
	return job.Result
}

// runImport is the synchronous import logic executed in a goroutine.
func (imp *RosterImporter) runImport(ctx context.Context, job *ImportJob, dirPath string) *ImportResult {
	start := time.Now()
	result := &ImportResult{JobID: job.Progress.JobID}

	files, err := collectCardFiles(dirPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("walk error: %v", err))
		return result
	}

	result.FilesFound = len(files)
	job.mu.Lock()
	job.Progress.FilesFound = len(files)
	job.Progress.FilesTotal = len(files)
	job.mu.Unlock()

	if len(files) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	existing, err := imp.loadExistingNames(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("roster scan error: %v", err))
		return result
	}

	for i, absPath := range files {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "context cancelled")
			break
		}

		rel, _ := filepath.Rel(dirPath, absPath)

		job.mu.Lock()
		job.Progress.FilesProcessed = i
		job.Progress.CurrentFile = rel
		job.mu.Unlock()

		data, err := os.ReadFile(absPath)
		if err != nil {
			log.Printf("import: skip %s: read error: %v", rel, err)
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: read error: %v", rel, err))
			continue
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			result.FilesSkipped++
			continue
		}

		card, err := ParsePersonCard(data, rel)
		if err != nil {
			log.Printf("import: skip %s: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rel, err))
			continue
		}

		nameKey := normalize.Fold(card.FirstName + " " + card.LastName)
		if existing[nameKey] {
			log.Printf("import: skip %s: person already on roster", rel)
			result.FilesSkipped++
			continue
		}

		if err := imp.storeCard(ctx, card, result); err != nil {
			log.Printf("import: failed to store %s: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: store error: %v", rel, err))
			continue
		}

		existing[nameKey] = true
		result.FilesProcessed++
		result.PersonsCreated++
	}

	result.Duration = time.Since(start)
	return result
}

// loadExistingNames builds the case-folded name set of the current roster.
func (imp *RosterImporter) loadExistingNames(ctx context.Context) (map[string]bool, error) {
	names := make(map[string]bool)
	opts := storage.ListOptions{Page: 1, Limit: 200}
	for {
		page, err := imp.store.ListPersons(ctx, opts)
		if err != nil {
			return nil, err
		}
		for i := range page.Items {
			p := &page.Items[i]
			names[normalize.Fold(p.FirstName+" "+p.LastName)] = true
		}
		if !page.HasMore {
			return names, nil
		}
		opts.Page++
	}
}

// storeCard creates the person, then their facts and group memberships.
// Fact and group failures are recorded but do not roll back the person.
func (imp *RosterImporter) storeCard(ctx context.Context, card *PersonCard, result *ImportResult) error {
	now := time.Now()
	person := &types.Person{
		ID:        uuid.NewString(),
		FirstName: card.FirstName,
		LastName:  card.LastName,
		Nickname:  card.Nickname,
		Summary:   card.Summary,
		Phone:     card.Phone,
		Email:     card.Email,
		Birthday:  card.Birthday,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := imp.store.CreatePerson(ctx, person); err != nil {
		return fmt.Errorf("create person: %w", err)
	}

	for _, cf := range card.Facts {
		fact := &types.Fact{
			ID:        uuid.NewString(),
			PersonID:  person.ID,
			Category:  cf.Category,
			Label:     cf.Label,
			Value:     cf.Value,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := imp.store.CreateFact(ctx, fact); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: fact %s: %v", card.RelativePath, cf.Label, err))
			continue
		}
		result.FactsCreated++
	}

	for _, name := range card.Groups {
		group, err := imp.ensureGroup(ctx, name)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: group %q: %v", card.RelativePath, name, err))
			continue
		}
		if err := imp.store.AddPersonToGroup(ctx, person.ID, group.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: group %q: %v", card.RelativePath, name, err))
			continue
		}
		result.GroupsBound++
	}

	return nil
}

// ensureGroup resolves a group by case-insensitive name, creating it when
// absent.
func (imp *RosterImporter) ensureGroup(ctx context.Context, name string) (*types.Group, error) {
	group, err := imp.store.GetGroupByName(ctx, name)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	group = &types.Group{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := imp.store.CreateGroup(ctx, group); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return imp.store.GetGroupByName(ctx, name)
		}
		return nil, err
	}
	return group, nil
}

// collectCardFiles walks dirPath and returns all .md / .markdown files found.
// Hidden directories are skipped.
func collectCardFiles(dirPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dirPath {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".md" || ext == ".markdown" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
