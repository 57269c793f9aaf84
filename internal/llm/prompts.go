package llm

import (
	"fmt"
	"strings"

	"github.com/rkeeling/kith/pkg/types"
)

// factCategoryDescriptions maps fact categories to brief descriptions for
// prompts.
var factCategoryDescriptions = map[types.FactCategory]string{
	types.CategoryHobby:           "Recurring leisure activity",
	types.CategorySport:           "Sport they play or follow",
	types.CategoryLanguage:        "Language they speak or learn",
	types.CategoryPet:             "Pet they own",
	types.CategorySharedReference: "Inside joke or shared reference",
	types.CategoryPersonality:     "Personality trait",
	types.CategoryGiftIdea:        "Gift idea for them",
	types.CategoryGiftGiven:       "Gift already given",
	types.CategoryChild:           "Child's name or detail",
	types.CategoryCompany:         "Current employer",
	types.CategoryRole:            "Current job or role",
	types.CategoryLocation:        "Where they live",
	types.CategoryBirthday:        "Birthday",
	types.CategoryEducation:       "School or degree",
	types.CategoryHowMet:          "How you met them",
	types.CategoryWhereMet:        "Where you met them",
	types.CategoryPhone:           "Phone number",
	types.CategoryEmail:           "Email address",
	types.CategoryFamily:          "Family detail (partner, sibling, parent)",
	types.CategoryHealth:          "Health situation",
	types.CategoryFood:            "Food preference or restriction",
}

// PersonContext carries the known state of a bound person into the
// extraction prompt so the model proposes updates instead of duplicates.
type PersonContext struct {
	Person       *types.Person
	Facts        []*types.Fact
	ActiveTopics []*types.Topic
}

func categoryList() string {
	var b strings.Builder
	for _, category := range types.AllFactCategories {
		fmt.Fprintf(&b, "- %s: %s\n", category, factCategoryDescriptions[category])
	}
	return b.String()
}

func formatFacts(facts []*types.Fact) string {
	if len(facts) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, fact := range facts {
		fmt.Fprintf(&b, "- %s / %s: %s\n", fact.Category, fact.Label, fact.Value)
	}
	return b.String()
}

func formatTopics(topics []*types.Topic) string {
	if len(topics) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, topic := range topics {
		fmt.Fprintf(&b, "- id=%s title=%q context=%q\n", topic.ID, topic.Title, topic.Context)
	}
	return b.String()
}

// ExtractionPrompt builds the full-extraction prompt: transcript plus the
// bound person's current state (nil context means the new-person path, which
// also asks for group suggestions).
func ExtractionPrompt(transcript string, personCtx *PersonContext) string {
	var b strings.Builder

	b.WriteString(`TASK: Extract relationship information from a voice note transcript.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.

FACT CATEGORIES (ONLY these):
`)
	b.WriteString(categoryList())

	b.WriteString(`
REQUIRED JSON STRUCTURE:
Your response MUST start with { and end with }
{
  "contact_identified": {"first_name":"X","last_name":"","confidence":"high"},
  "facts": [{"category":"hobby","label":"hobby","value":"climbing","action":"add"}],
  "hot_topics": [{"title":"surgery next week","context":"nervous about it"}],
  "resolved_topics": [{"id":"<existing topic id>","resolution":"went well"}],
  "memories": [{"description":"we saw a concert","event_date":"last Friday","is_shared":true}],
  "summary": "one short paragraph",
  "summary_changed": false
}

VALIDATION (STRICT):
1. confidence EXACTLY one of: high|medium|low
2. action EXACTLY one of: add|update
3. update actions MUST include "previous_value"
4. resolved_topics entries MUST use an id from KNOWN ACTIVE TOPICS below
5. No trailing commas, no null values, valid JSON syntax
`)

	if personCtx == nil {
		b.WriteString(`6. Include "suggested_groups": [{"name":"X","source_fact_category":"company"}]
   for employer, how_met, where_met, sport, and hobby facts

KNOWN PERSON: (none - this is a new contact)
KNOWN FACTS:
(none)
KNOWN ACTIVE TOPICS:
(none)
`)
	} else {
		b.WriteString(`6. Do NOT include "suggested_groups" - this person is already known
7. Propose "update" only when a known singleton fact changed
8. Set "summary_changed" true only when the summary materially changed

`)
		fmt.Fprintf(&b, "KNOWN PERSON: %s\n", personCtx.Person.DisplayName())
		b.WriteString("KNOWN FACTS:\n")
		b.WriteString(formatFacts(personCtx.Facts))
		b.WriteString("KNOWN ACTIVE TOPICS:\n")
		b.WriteString(formatTopics(personCtx.ActiveTopics))
	}

	b.WriteString("\nTRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nRESPOND WITH ONLY THE JSON OBJECT (nothing else):")

	return b.String()
}

// DisambiguationPrompt builds the standalone contact-matching prompt run
// ahead of full extraction.
func DisambiguationPrompt(transcript string, roster []*types.Person) string {
	var b strings.Builder

	b.WriteString(`TASK: Identify which known contact a voice note is about, or decide it is a new contact.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.

REQUIRED JSON STRUCTURE:
{
  "contact_id": "<roster id or empty string>",
  "first_name": "X",
  "last_name": "",
  "suggested_nickname": "",
  "confidence": "high",
  "is_new": false,
  "candidate_ids": []
}

RULES:
1. confidence EXACTLY one of: high|medium|low
2. Exactly one match: set contact_id, is_new false, candidate_ids empty
3. New contact: empty contact_id, is_new true
4. Several plausible matches: empty contact_id, is_new false, list ALL their ids in candidate_ids
5. first_name is REQUIRED and non-empty

KNOWN CONTACTS:
`)
	if len(roster) == 0 {
		b.WriteString("(none)\n")
	}
	for _, person := range roster {
		fmt.Fprintf(&b, "- id=%s name=%q nickname=%q\n", person.ID, person.DisplayName(), person.Nickname)
	}

	b.WriteString("\nTRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nRESPOND WITH ONLY THE JSON OBJECT (nothing else):")

	return b.String()
}

// StartersPrompt builds the conversation-starter regeneration prompt used by
// the background enrichment worker.
func StartersPrompt(person *types.Person, facts []*types.Fact, topics []*types.Topic) string {
	var b strings.Builder

	fmt.Fprintf(&b, `TASK: Write 3 short conversation starters for catching up with %s.
OUTPUT: plain text, one starter per line, no numbering, no preamble.

WHAT YOU KNOW:
`, person.DisplayName())
	b.WriteString(formatFacts(facts))
	b.WriteString("OPEN THREADS:\n")
	b.WriteString(formatTopics(topics))

	return b.String()
}
