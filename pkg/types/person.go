package types

import "time"

// Person is the identity record everything else hangs off.
// Persons are created by the commit sequencer (new-person path) or referenced
// by ID (existing-person path); this engine mutates but never deletes them.
type Person struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name,omitempty"`
	Nickname    string     `json:"nickname,omitempty"`
	Summary     string     `json:"summary,omitempty"` // AI-generated free-text summary
	Starters    string     `json:"starters,omitempty"` // derived conversation starters, regenerated in the background
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	Birthday    string     `json:"birthday,omitempty"` // free text, not always parseable
	LastContact *time.Time `json:"last_contact,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DisplayName returns the name shown in lists: "First Last", falling back to
// the nickname in parentheses when no last name distinguishes the person.
func (p *Person) DisplayName() string {
	name := p.FirstName
	if p.LastName != "" {
		name += " " + p.LastName
	} else if p.Nickname != "" {
		name += " (" + p.Nickname + ")"
	}
	return name
}

// Group is a named label a person can belong to. Group names are unique
// case-insensitively; groups are created lazily by name at commit time.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is the immutable raw transcript anchor that facts, topics, and
// memories reference as provenance. The engine never rewrites a note.
type Note struct {
	ID         string    `json:"id"`
	PersonID   string    `json:"person_id"`
	Transcript string    `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
}
