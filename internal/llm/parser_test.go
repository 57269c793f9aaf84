package llm

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rkeeling/kith/pkg/types"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantJSON string
	}{
		{
			name:     "plain JSON object",
			input:    `{"key": "value"}`,
			wantJSON: `{"key": "value"}`,
		},
		{
			name:     "JSON with markdown code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			wantJSON: `{"key": "value"}`,
		},
		{
			name:     "JSON with surrounding text",
			input:    "Here is the JSON:\n{\"key\": \"value\"}\nDone.",
			wantJSON: `{"key": "value"}`,
		},
		{
			name:     "nested objects",
			input:    `{"outer": {"inner": "value"}} trailing prose`,
			wantJSON: `{"outer": {"inner": "value"}}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"text": "a { b } c"}`,
			wantJSON: `{"text": "a { b } c"}`,
		},
		{
			name:     "escaped quotes",
			input:    `{"text": "he said \"hi\""}`,
			wantJSON: `{"text": "he said \"hi\""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.input); got != tt.wantJSON {
				t.Errorf("extractJSON() = %q, want %q", got, tt.wantJSON)
			}
		})
	}
}

func validCandidateJSON() string {
	return `{
		"contact_identified": {"first_name": "Marie", "confidence": "high"},
		"facts": [
			{"category": "hobby", "label": "hobby", "value": "climbing", "action": "add"},
			{"category": "company", "label": "employer", "value": "Globex", "action": "update", "previous_value": "Acme"}
		],
		"hot_topics": [{"title": "surgery next week", "context": "nervous"}],
		"resolved_topics": [{"id": "t1", "resolution": "went well"}],
		"memories": [{"description": "rooftop concert", "event_date": "last Friday", "is_shared": true}],
		"summary": "Marie climbs and works at Globex.",
		"summary_changed": true
	}`
}

func TestParseCandidateValid(t *testing.T) {
	candidate, err := ParseCandidate("Sure! Here you go:\n" + validCandidateJSON())
	if err != nil {
		t.Fatalf("ParseCandidate() failed: %v", err)
	}

	if candidate.ContactIdentified.FirstName != "Marie" {
		t.Errorf("FirstName = %q, want Marie", candidate.ContactIdentified.FirstName)
	}
	if len(candidate.Facts) != 2 || candidate.Facts[1].PreviousValue != "Acme" {
		t.Errorf("Facts = %+v, want two with previous value", candidate.Facts)
	}
	if len(candidate.ResolvedTopics) != 1 || candidate.ResolvedTopics[0].TopicID != "t1" {
		t.Errorf("ResolvedTopics = %+v, want topic t1", candidate.ResolvedTopics)
	}
	if !candidate.SummaryChanged {
		t.Error("SummaryChanged = false, want true")
	}
}

func TestParseCandidateSchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "missing first name",
			input: `{"contact_identified": {"first_name": "", "confidence": "high"}}`,
		},
		{
			name:  "invalid confidence",
			input: `{"contact_identified": {"first_name": "Marie", "confidence": "certain"}}`,
		},
		{
			name: "unknown fact category",
			input: `{"contact_identified": {"first_name": "Marie", "confidence": "high"},
				"facts": [{"category": "zodiac", "label": "sign", "value": "leo", "action": "add"}]}`,
		},
		{
			name: "unknown fact action",
			input: `{"contact_identified": {"first_name": "Marie", "confidence": "high"},
				"facts": [{"category": "hobby", "label": "hobby", "value": "chess", "action": "upsert"}]}`,
		},
		{
			name: "resolution without id",
			input: `{"contact_identified": {"first_name": "Marie", "confidence": "high"},
				"resolved_topics": [{"id": "", "resolution": "done"}]}`,
		},
		{
			name: "memory without description",
			input: `{"contact_identified": {"first_name": "Marie", "confidence": "high"},
				"memories": [{"description": "  ", "is_shared": false}]}`,
		},
		{
			name: "group with unknown source category",
			input: `{"contact_identified": {"first_name": "Marie", "confidence": "high"},
				"suggested_groups": [{"name": "Ecorp", "source_fact_category": "vibe"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCandidate(tt.input)
			if err == nil {
				t.Fatal("ParseCandidate() succeeded, want schema violation")
			}
			var sv *ErrSchemaViolation
			if !errors.As(err, &sv) {
				t.Errorf("error = %v, want *ErrSchemaViolation", err)
			}
		})
	}
}

func TestParseCandidateUnknownFieldRejected(t *testing.T) {
	input := `{"contact_identified": {"first_name": "Marie", "confidence": "high"}, "mood": "upbeat"}`
	if _, err := ParseCandidate(input); err == nil {
		t.Error("ParseCandidate() accepted an unknown top-level field")
	}
}

func TestParseCandidateMalformedJSON(t *testing.T) {
	if _, err := ParseCandidate("I could not process that transcript."); err == nil {
		t.Error("ParseCandidate() succeeded on non-JSON input")
	}
}

func TestParseDisambiguation(t *testing.T) {
	input := `{"first_name": "Marie", "confidence": "medium", "is_new": false,
		"candidate_ids": ["id1", "id2"]}`
	result, err := ParseDisambiguation(input)
	if err != nil {
		t.Fatalf("ParseDisambiguation() failed: %v", err)
	}
	if !reflect.DeepEqual(result.CandidateIDs, []string{"id1", "id2"}) {
		t.Errorf("CandidateIDs = %v, want [id1 id2]", result.CandidateIDs)
	}
}

func TestParseDisambiguationInconsistent(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "new with contact id",
			input: `{"contact_id": "p1", "first_name": "Marie", "confidence": "high", "is_new": true}`,
		},
		{
			name:  "contact id with candidates",
			input: `{"contact_id": "p1", "first_name": "Marie", "confidence": "high", "is_new": false, "candidate_ids": ["p2"]}`,
		},
		{
			name:  "missing first name",
			input: `{"confidence": "high", "is_new": true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDisambiguation(tt.input); err == nil {
				t.Error("ParseDisambiguation() succeeded, want error")
			}
		})
	}
}

func TestParseStarters(t *testing.T) {
	raw := "- Ask about the marathon\n\nHow is the new flat?\n   \n- Any news from Globex?\n"
	starters := ParseStarters(raw)
	want := []string{"Ask about the marathon", "How is the new flat?", "Any news from Globex?"}
	if !reflect.DeepEqual(starters, want) {
		t.Errorf("ParseStarters() = %v, want %v", starters, want)
	}
}

func TestExtractionPromptPaths(t *testing.T) {
	newPersonPrompt := ExtractionPrompt("met someone new", nil)
	if !strings.Contains(newPersonPrompt, "suggested_groups") {
		t.Error("new-person prompt does not ask for group suggestions")
	}

	person := &types.Person{ID: "p1", FirstName: "Marie"}
	boundPrompt := ExtractionPrompt("caught up with Marie", &PersonContext{
		Person: person,
		Facts: []*types.Fact{
			{Category: types.CategoryHobby, Label: "hobby", Value: "climbing"},
		},
		ActiveTopics: []*types.Topic{
			{ID: "t1", Title: "surgery"},
		},
	})
	if !strings.Contains(boundPrompt, "Do NOT include \"suggested_groups\"") {
		t.Error("bound prompt does not forbid group suggestions")
	}
	if !strings.Contains(boundPrompt, "climbing") || !strings.Contains(boundPrompt, "t1") {
		t.Error("bound prompt missing known facts or topics")
	}
}
