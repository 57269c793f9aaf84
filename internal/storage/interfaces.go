// Package storage provides composable storage interfaces for the kith
// engine. The interfaces are split per entity so backends can be implemented
// and tested independently and the engine layer only names what it touches.
package storage

import (
	"context"
	"time"

	"github.com/rkeeling/kith/pkg/types"
)

// PersonStore manages the roster of persons.
type PersonStore interface {
	// CreatePerson inserts a new person. The ID must be set by the caller.
	CreatePerson(ctx context.Context, person *types.Person) error

	// GetPerson retrieves a person by ID. Returns ErrNotFound if absent.
	GetPerson(ctx context.Context, id string) (*types.Person, error)

	// ListPersons retrieves persons with pagination.
	ListPersons(ctx context.Context, opts ListOptions) (*PaginatedResult[types.Person], error)

	// UpdatePerson modifies an existing person. Returns ErrNotFound if absent.
	UpdatePerson(ctx context.Context, person *types.Person) error

	// TouchLastContact sets the person's last-contact timestamp.
	TouchLastContact(ctx context.Context, id string, at time.Time) error

	// UpdateSummary replaces the person's AI-generated summary.
	UpdateSummary(ctx context.Context, id string, summary string) error

	// UpdateStarters replaces the person's derived conversation starters.
	// Idempotent overwrite; concurrent writers are last-writer-wins.
	UpdateStarters(ctx context.Context, id string, starters string) error

	// UpdateContactInfo applies accepted contact-info fields. Nil fields are
	// left untouched.
	UpdateContactInfo(ctx context.Context, id string, info ContactInfoUpdate) error
}

// FactStore manages facts attached to persons.
type FactStore interface {
	CreateFact(ctx context.Context, fact *types.Fact) error
	GetFact(ctx context.Context, id string) (*types.Fact, error)

	// ListFacts returns all facts for a person, oldest first.
	ListFacts(ctx context.Context, personID string) ([]*types.Fact, error)

	// ListFactsByCategory returns a person's facts of one category, oldest first.
	ListFactsByCategory(ctx context.Context, personID string, category types.FactCategory) ([]*types.Fact, error)

	// UpdateFact persists the fact's current value and previous-value history.
	UpdateFact(ctx context.Context, fact *types.Fact) error

	DeleteFact(ctx context.Context, id string) error
}

// TopicStore manages follow-up topics.
type TopicStore interface {
	CreateTopic(ctx context.Context, topic *types.Topic) error
	GetTopic(ctx context.Context, id string) (*types.Topic, error)

	// ListTopics returns a person's topics, optionally filtered by status
	// (empty status means all), newest first.
	ListTopics(ctx context.Context, personID string, status types.TopicStatus) ([]*types.Topic, error)

	// UpdateTopic persists status, resolution, resolvedAt, title, context,
	// and eventDate changes.
	UpdateTopic(ctx context.Context, topic *types.Topic) error

	DeleteTopic(ctx context.Context, id string) error
}

// MemoryStore manages episodic memory records. Memories are append-only from
// the engine's perspective: there is no update path.
type MemoryStore interface {
	CreateMemory(ctx context.Context, memory *types.Memory) error
	ListMemories(ctx context.Context, personID string) ([]*types.Memory, error)
	DeleteMemory(ctx context.Context, id string) error
}

// GroupStore manages groups and person-group membership.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *types.Group) error

	// GetGroup retrieves a group by ID. Returns ErrNotFound if absent.
	GetGroup(ctx context.Context, id string) (*types.Group, error)

	// GetGroupByName performs a case-insensitive name lookup.
	// Returns ErrNotFound when no group matches.
	GetGroupByName(ctx context.Context, name string) (*types.Group, error)

	ListGroups(ctx context.Context) ([]*types.Group, error)

	// AddPersonToGroup binds membership; adding an existing membership is a no-op.
	AddPersonToGroup(ctx context.Context, personID, groupID string) error

	// ListGroupsForPerson returns the groups a person belongs to.
	ListGroupsForPerson(ctx context.Context, personID string) ([]*types.Group, error)
}

// NoteStore manages the immutable transcript anchors.
type NoteStore interface {
	CreateNote(ctx context.Context, note *types.Note) error
	GetNote(ctx context.Context, id string) (*types.Note, error)
	ListNotes(ctx context.Context, personID string) ([]*types.Note, error)
}

// Store is the full storage contract a backend implements.
type Store interface {
	PersonStore
	FactStore
	TopicStore
	MemoryStore
	GroupStore
	NoteStore

	// Close releases any resources held by the store.
	Close() error
}

// ContactInfoUpdate carries directly-accepted contact-info fields.
// Nil pointers mean "leave unchanged"; empty strings clear the field.
type ContactInfoUpdate struct {
	Phone    *string
	Email    *string
	Birthday *string
}
