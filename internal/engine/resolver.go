package engine

import (
	"github.com/rkeeling/kith/internal/normalize"
	"github.com/rkeeling/kith/pkg/types"
)

// ResolutionKind discriminates the contact resolver's outcome.
type ResolutionKind string

// Resolver outcomes.
const (
	// ResolutionNew means no roster entry matches; a person will be created
	// at commit.
	ResolutionNew ResolutionKind = "new"

	// ResolutionResolved means exactly one strong match was found and the
	// person ID is bound.
	ResolutionResolved ResolutionKind = "resolved"

	// ResolutionAmbiguous means several roster entries are plausible. No
	// person ID is bound until the human picks one or rejects all.
	ResolutionAmbiguous ResolutionKind = "ambiguous"
)

// Resolution is the contact resolver's discriminated result.
type Resolution struct {
	Kind ResolutionKind

	// PersonID is set only for ResolutionResolved.
	PersonID string

	// CandidateIDs is set only for ResolutionAmbiguous.
	CandidateIDs []string

	// SuggestedNickname is set only for ResolutionNew when the candidate has
	// no family name to distinguish them.
	SuggestedNickname string
}

// nicknameCategories is the scan order for nickname synthesis:
// what they do beats what they play beats where they are.
var nicknameCategories = []types.FactCategory{
	types.CategoryRole,
	types.CategoryCompany,
	types.CategorySport,
	types.CategoryHobby,
	types.CategoryLocation,
	types.CategoryEducation,
}

// ResolveContact matches the identified contact against the roster. Pure:
// no writes, no binding beyond the returned value.
//
// Outcomes:
//   - the extraction service supplied multiple candidate IDs → ambiguous
//     with exactly those IDs, regardless of local matching
//   - zero roster matches → new person (with a nickname suggestion when no
//     family name is present)
//   - one match, high confidence, no ambiguity flag → resolved
//   - anything else → ambiguous with the matched IDs
func ResolveContact(identified types.ContactIdentified, roster []*types.Person, facts []types.CandidateFact) Resolution {
	// The extraction service already attempted disambiguation and could not
	// settle on one entry; its candidate list wins.
	if len(identified.CandidateIDs) > 1 {
		return Resolution{Kind: ResolutionAmbiguous, CandidateIDs: identified.CandidateIDs}
	}

	var matches []string
	for _, person := range roster {
		if normalize.Equal(person.FirstName, identified.FirstName) {
			matches = append(matches, person.ID)
		}
	}

	switch {
	case len(matches) == 0:
		res := Resolution{Kind: ResolutionNew}
		if identified.LastName == "" {
			res.SuggestedNickname = SuggestNickname(facts)
		}
		return res

	case len(matches) == 1 && identified.Confidence == types.ConfidenceHigh && !identified.Ambiguous:
		return Resolution{Kind: ResolutionResolved, PersonID: matches[0]}

	default:
		return Resolution{Kind: ResolutionAmbiguous, CandidateIDs: matches}
	}
}

// SuggestNickname synthesizes a nickname hint from proposed facts, taking
// the first token of the first non-empty value in priority order. Returns
// "" when no fact qualifies.
func SuggestNickname(facts []types.CandidateFact) string {
	for _, category := range nicknameCategories {
		for _, fact := range facts {
			if fact.Category != category {
				continue
			}
			if token := normalize.FirstToken(fact.Value); token != "" {
				return token
			}
		}
	}
	return ""
}

// Disambiguate is the standalone resolver mode run ahead of full extraction.
// It wraps ResolveContact into the narrow disambiguation contract consumed
// by clients.
func Disambiguate(identified types.ContactIdentified, roster []*types.Person, facts []types.CandidateFact) types.Disambiguation {
	res := ResolveContact(identified, roster, facts)

	d := types.Disambiguation{
		FirstName:  identified.FirstName,
		LastName:   identified.LastName,
		Confidence: identified.Confidence,
	}

	switch res.Kind {
	case ResolutionNew:
		d.IsNew = true
		d.SuggestedNickname = res.SuggestedNickname
	case ResolutionResolved:
		d.ContactID = res.PersonID
	case ResolutionAmbiguous:
		d.CandidateIDs = res.CandidateIDs
	}

	return d
}
