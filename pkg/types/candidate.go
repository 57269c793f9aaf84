package types

// Candidate is the extraction service's structured guess for one note.
// It exists only between extraction and commit and is never persisted;
// discarding it before commit has zero storage side effects.
type Candidate struct {
	ContactIdentified ContactIdentified `json:"contact_identified"`
	Facts             []CandidateFact   `json:"facts,omitempty"`
	HotTopics         []CandidateTopic  `json:"hot_topics,omitempty"`
	ResolvedTopics    []TopicResolution `json:"resolved_topics,omitempty"`
	Memories          []CandidateMemory `json:"memories,omitempty"`

	// SuggestedGroups is present only when no existing person was bound.
	SuggestedGroups []GroupSuggestion `json:"suggested_groups,omitempty"`

	// Summary is an updated AI-generated person summary. SummaryChanged is
	// set by the extraction service when the summary materially changed for
	// an existing person; for a new person the summary is always persisted.
	Summary        string `json:"summary,omitempty"`
	SummaryChanged bool   `json:"summary_changed,omitempty"`
}

// ContactIdentified is the extraction service's guess at who was discussed.
type ContactIdentified struct {
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name,omitempty"`
	Confidence Confidence `json:"confidence"`

	// Ambiguous is set when the extraction service could not pick a single
	// roster entry despite matches existing.
	Ambiguous bool `json:"ambiguous,omitempty"`

	// CandidateIDs carries roster IDs when the extraction service already
	// attempted disambiguation and found several plausible matches.
	CandidateIDs []string `json:"candidate_ids,omitempty"`
}

// CandidateFact is a proposed factual claim awaiting review.
type CandidateFact struct {
	Category FactCategory `json:"category"`
	Label    string       `json:"label"`
	Value    string       `json:"value"`
	Action   FactAction   `json:"action"`

	// PreviousValue is the extraction service's claim about the currently
	// stored value, present only for update actions. Used by the no-op
	// pre-filter; the merge engine trusts the stored row, not this field.
	PreviousValue string `json:"previous_value,omitempty"`
}

// CandidateTopic is a proposed new follow-up item.
type CandidateTopic struct {
	Title   string `json:"title"`
	Context string `json:"context,omitempty"`

	// EventDate is set during review when the human enables a reminder.
	EventDate string `json:"event_date,omitempty"`
}

// TopicResolution is a model-proposed resolution of an existing topic.
// Never applied automatically: each entry is default-selected in review but
// the human must confirm it (and may edit the resolution text) before commit.
type TopicResolution struct {
	TopicID    string `json:"id"`
	Resolution string `json:"resolution"`
}

// CandidateMemory is a proposed episodic event record.
type CandidateMemory struct {
	Description string `json:"description"`
	EventDate   string `json:"event_date,omitempty"`
	IsShared    bool   `json:"is_shared"`
}

// GroupSuggestion is a proposed group membership derived from a contextual
// fact. Only produced on the new-person path.
type GroupSuggestion struct {
	Name string `json:"name"`

	// SourceCategory is the fact category that triggered the suggestion
	// (company, how_met, where_met, sport, hobby).
	SourceCategory FactCategory `json:"source_fact_category"`

	// GroupID is filled during classification when a group with this name
	// already exists; empty means the group is created lazily at commit.
	GroupID string `json:"group_id,omitempty"`
}

// Disambiguation is the standalone contact-matching result consumed when the
// resolver runs ahead of full extraction.
type Disambiguation struct {
	ContactID         string     `json:"contact_id,omitempty"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name,omitempty"`
	SuggestedNickname string     `json:"suggested_nickname,omitempty"`
	Confidence        Confidence `json:"confidence"`
	IsNew             bool       `json:"is_new"`
	CandidateIDs      []string   `json:"candidate_ids,omitempty"`
}
