package types

import "time"

// FactCategory classifies a fact and selects its merge policy.
type FactCategory string

// Fact categories. Cumulative categories accumulate distinct values;
// singleton categories keep one current value per label and roll the old
// value into history on change.
const (
	// Cumulative categories
	CategoryHobby           FactCategory = "hobby"
	CategorySport           FactCategory = "sport"
	CategoryLanguage        FactCategory = "language"
	CategoryPet             FactCategory = "pet"
	CategorySharedReference FactCategory = "shared_reference"
	CategoryPersonality     FactCategory = "personality"
	CategoryGiftIdea        FactCategory = "gift_idea"
	CategoryGiftGiven       FactCategory = "gift_given"
	CategoryChild           FactCategory = "child"

	// Singleton categories
	CategoryCompany   FactCategory = "company"
	CategoryRole      FactCategory = "role"
	CategoryLocation  FactCategory = "location"
	CategoryBirthday  FactCategory = "birthday"
	CategoryEducation FactCategory = "education"
	CategoryHowMet    FactCategory = "how_met"
	CategoryWhereMet  FactCategory = "where_met"
	CategoryPhone     FactCategory = "phone"
	CategoryEmail     FactCategory = "email"
	CategoryFamily    FactCategory = "family"
	CategoryHealth    FactCategory = "health"
	CategoryFood      FactCategory = "food"
)

// AllFactCategories lists every known category, cumulative first.
var AllFactCategories = []FactCategory{
	CategoryHobby, CategorySport, CategoryLanguage, CategoryPet,
	CategorySharedReference, CategoryPersonality, CategoryGiftIdea,
	CategoryGiftGiven, CategoryChild,
	CategoryCompany, CategoryRole, CategoryLocation, CategoryBirthday,
	CategoryEducation, CategoryHowMet, CategoryWhereMet, CategoryPhone,
	CategoryEmail, CategoryFamily, CategoryHealth, CategoryFood,
}

// IsValidFactCategory checks whether the given category is known.
func IsValidFactCategory(c FactCategory) bool {
	for _, known := range AllFactCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IsCumulative reports whether the category accumulates distinct values
// rather than replacing a single current one. The switch is exhaustive over
// the cumulative set so the merge policy dispatch is compiler-visible instead
// of a runtime set-membership test.
func (c FactCategory) IsCumulative() bool {
	switch c {
	case CategoryHobby, CategorySport, CategoryLanguage, CategoryPet,
		CategorySharedReference, CategoryPersonality, CategoryGiftIdea,
		CategoryGiftGiven, CategoryChild:
		return true
	}
	return false
}

// Fact is an atomic claim about a person.
//
// Invariants maintained by the merge engine:
//   - cumulative categories: no two facts on one person with the same
//     category have case-insensitive-equal values
//   - singleton categories: at most one fact per (person, category, label);
//     updates append the old value to PreviousValues instead of creating rows
type Fact struct {
	ID       string       `json:"id"`
	PersonID string       `json:"person_id"`
	Category FactCategory `json:"category"`
	Label    string       `json:"label"` // display key, e.g. "Employer"
	Value    string       `json:"value"`

	// PreviousValues holds superseded values oldest→newest. Populated only
	// for singleton categories; never truncated.
	PreviousValues []string `json:"previous_values,omitempty"`

	NoteID    string    `json:"note_id,omitempty"` // provenance
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
