// Package llm provides the extraction-service client: prompt templates,
// provider clients (Ollama, OpenAI), and the strict response parsers for the
// candidate and disambiguation contracts. A response that violates either
// schema is a hard failure for that call; the engine never interprets a
// malformed candidate.
package llm

import "context"

// TextGenerator is the interface for LLM text completion.
// All extraction prompts use single-string completion style (not chat).
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}
