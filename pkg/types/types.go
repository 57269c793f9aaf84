// Package types defines the core data structures for the kith relationship
// keeper: persons, the facts/topics/memories attached to them, and the
// transient candidate object produced by the extraction service for one note.
package types

// Confidence expresses how sure the extraction service is about a contact
// identification.
type Confidence string

// Contact identification confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IsValidConfidence checks whether the given value is a known confidence level.
func IsValidConfidence(c Confidence) bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// FactAction indicates whether a candidate fact adds a new claim or updates
// an existing one.
type FactAction string

// Candidate fact actions.
const (
	ActionAdd    FactAction = "add"
	ActionUpdate FactAction = "update"
)

// IsValidFactAction checks whether the given value is a known fact action.
func IsValidFactAction(a FactAction) bool {
	return a == ActionAdd || a == ActionUpdate
}
