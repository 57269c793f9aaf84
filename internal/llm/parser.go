package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rkeeling/kith/pkg/types"
)

// ErrSchemaViolation wraps all strict-validation failures. A violation is
// fatal for the extraction attempt: nothing is written and the caller
// surfaces "extraction failed" for a retry.
type ErrSchemaViolation struct {
	Field  string
	Reason string
}

func (e *ErrSchemaViolation) Error() string {
	return fmt.Sprintf("schema violation in %s: %s", e.Field, e.Reason)
}

func violation(field, format string, args ...interface{}) error {
	return &ErrSchemaViolation{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// extractJSON extracts the first balanced JSON object from text that may
// contain extra prose. LLMs add explanations around the JSON despite
// instructions; fenced code markers are stripped first.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text
}

// ParseCandidate parses and strictly validates a full extraction response.
// Any schema violation fails the whole parse; the engine never partially
// interprets a malformed candidate.
func ParseCandidate(raw string) (*types.Candidate, error) {
	cleanJSON := extractJSON(raw)

	var candidate types.Candidate
	decoder := json.NewDecoder(strings.NewReader(cleanJSON))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&candidate); err != nil {
		return nil, fmt.Errorf("failed to parse candidate JSON: %w", err)
	}

	if err := validateCandidate(&candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

func validateCandidate(candidate *types.Candidate) error {
	contact := candidate.ContactIdentified
	if strings.TrimSpace(contact.FirstName) == "" {
		return violation("contact_identified.first_name", "required and non-empty")
	}
	if !types.IsValidConfidence(contact.Confidence) {
		return violation("contact_identified.confidence", "unknown value %q", contact.Confidence)
	}

	for i, fact := range candidate.Facts {
		field := fmt.Sprintf("facts[%d]", i)
		if !types.IsValidFactCategory(fact.Category) {
			return violation(field, "unknown category %q", fact.Category)
		}
		if !types.IsValidFactAction(fact.Action) {
			return violation(field, "unknown action %q", fact.Action)
		}
		if strings.TrimSpace(fact.Value) == "" {
			return violation(field, "value is required")
		}
		if strings.TrimSpace(fact.Label) == "" {
			return violation(field, "label is required")
		}
	}

	for i, topic := range candidate.HotTopics {
		if strings.TrimSpace(topic.Title) == "" {
			return violation(fmt.Sprintf("hot_topics[%d]", i), "title is required")
		}
	}

	for i, resolution := range candidate.ResolvedTopics {
		field := fmt.Sprintf("resolved_topics[%d]", i)
		if strings.TrimSpace(resolution.TopicID) == "" {
			return violation(field, "id is required")
		}
		if strings.TrimSpace(resolution.Resolution) == "" {
			return violation(field, "resolution is required")
		}
	}

	for i, memory := range candidate.Memories {
		if strings.TrimSpace(memory.Description) == "" {
			return violation(fmt.Sprintf("memories[%d]", i), "description is required")
		}
	}

	for i, group := range candidate.SuggestedGroups {
		field := fmt.Sprintf("suggested_groups[%d]", i)
		if strings.TrimSpace(group.Name) == "" {
			return violation(field, "name is required")
		}
		if !types.IsValidFactCategory(group.SourceCategory) {
			return violation(field, "unknown source category %q", group.SourceCategory)
		}
	}

	return nil
}

// ParseDisambiguation parses and strictly validates a standalone
// contact-matching response.
func ParseDisambiguation(raw string) (*types.Disambiguation, error) {
	cleanJSON := extractJSON(raw)

	var result types.Disambiguation
	decoder := json.NewDecoder(strings.NewReader(cleanJSON))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse disambiguation JSON: %w", err)
	}

	if strings.TrimSpace(result.FirstName) == "" {
		return nil, violation("first_name", "required and non-empty")
	}
	if !types.IsValidConfidence(result.Confidence) {
		return nil, violation("confidence", "unknown value %q", result.Confidence)
	}
	if result.IsNew && result.ContactID != "" {
		return nil, violation("contact_id", "must be empty when is_new is true")
	}
	if result.ContactID != "" && len(result.CandidateIDs) > 0 {
		return nil, violation("candidate_ids", "must be empty when contact_id is set")
	}

	return &result, nil
}

// ParseStarters parses the plain-text starter response into trimmed,
// non-empty lines.
func ParseStarters(raw string) []string {
	var starters []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if line == "" {
			continue
		}
		starters = append(starters, line)
	}
	return starters
}
