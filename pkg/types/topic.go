package types

import "time"

// TopicStatus is the lifecycle state of a topic.
type TopicStatus string

// Topic lifecycle states. There is no terminal state: topics persist
// indefinitely and may cycle between active and resolved.
const (
	TopicActive   TopicStatus = "active"
	TopicResolved TopicStatus = "resolved"
)

// IsValidTopicStatus checks whether the given status is known.
func IsValidTopicStatus(s TopicStatus) bool {
	return s == TopicActive || s == TopicResolved
}

// IsValidTopicTransition validates topic state transitions.
//
// Valid transitions:
//
//	active -> resolved   (resolve, optional resolution text, resolvedAt set)
//	resolved -> active   (reopen; resolution/resolvedAt retained until the
//	                      next resolve overwrites them)
//	resolved -> resolved (edit resolution text)
//	active -> active     (edit title/context)
func IsValidTopicTransition(current, next TopicStatus) bool {
	switch current {
	case TopicActive:
		return next == TopicActive || next == TopicResolved
	case TopicResolved:
		return next == TopicActive || next == TopicResolved
	}
	return false
}

// Topic is a time-bound follow-up item tied to a person. Created active,
// resolved either manually or through a human-confirmed model proposal, and
// reopenable at any time.
type Topic struct {
	ID       string      `json:"id"`
	PersonID string      `json:"person_id"`
	Title    string      `json:"title"`
	Context  string      `json:"context,omitempty"`
	Status   TopicStatus `json:"status"`

	// EventDate is a free-form reminder date confirmed by the human.
	// Normalization is the external date collaborator's job.
	EventDate string `json:"event_date,omitempty"`

	Resolution string     `json:"resolution,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	NoteID    string    `json:"note_id,omitempty"` // provenance
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Memory is an episodic, non-recurring event record. Append-only: a hobby is
// a fact, a single skydiving trip is a memory.
type Memory struct {
	ID          string `json:"id"`
	PersonID    string `json:"person_id"`
	Description string `json:"description"`

	// EventDate is approximate free text ("last summer"), not always parseable.
	EventDate string `json:"event_date,omitempty"`

	// IsShared is true when the event was experienced jointly with the user.
	IsShared bool `json:"is_shared"`

	NoteID    string    `json:"note_id,omitempty"` // provenance
	CreatedAt time.Time `json:"created_at"`
}
