package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rkeeling/kith/pkg/types"
)

// Extractor runs extraction prompts through a TextGenerator and validates
// the responses. It is the single entry point the rest of the system uses
// to talk to the extraction service.
type Extractor struct {
	generator TextGenerator
}

// NewExtractor creates an extractor over the given text generator.
func NewExtractor(generator TextGenerator) (*Extractor, error) {
	if generator == nil {
		return nil, fmt.Errorf("text generator is required")
	}
	return &Extractor{generator: generator}, nil
}

// Extract runs full extraction over a transcript. personCtx is nil on the
// new-person path; when set, the model is given the person's current facts
// and active topics so it proposes updates and resolutions instead of
// duplicates.
func (x *Extractor) Extract(ctx context.Context, transcript string, personCtx *PersonContext) (*types.Candidate, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	response, err := x.generator.Complete(ctx, ExtractionPrompt(transcript, personCtx))
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	candidate, err := ParseCandidate(response)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	return candidate, nil
}

// Disambiguate runs the standalone contact-matching prompt against the
// roster.
func (x *Extractor) Disambiguate(ctx context.Context, transcript string, roster []*types.Person) (*types.Disambiguation, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	response, err := x.generator.Complete(ctx, DisambiguationPrompt(transcript, roster))
	if err != nil {
		return nil, fmt.Errorf("disambiguation call failed: %w", err)
	}

	result, err := ParseDisambiguation(response)
	if err != nil {
		return nil, fmt.Errorf("disambiguation failed: %w", err)
	}
	return result, nil
}

// GenerateStarters regenerates conversation starters for a person. Satisfies
// the engine's starter-generator contract for the background worker.
func (x *Extractor) GenerateStarters(ctx context.Context, person *types.Person, facts []*types.Fact, topics []*types.Topic) (string, error) {
	response, err := x.generator.Complete(ctx, StartersPrompt(person, facts, topics))
	if err != nil {
		return "", fmt.Errorf("starter generation failed: %w", err)
	}

	starters := ParseStarters(response)
	if len(starters) == 0 {
		return "", fmt.Errorf("starter generation returned no usable lines")
	}
	return strings.Join(starters, "\n"), nil
}
