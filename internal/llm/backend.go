// Package llm is the narrow boundary to the language model. The agent core
// only ever sees raw response text here; everything else (transport, provider
// selection) stays behind the Backend interface.
package llm

import (
	"context"
)

// Backend produces a text completion for a prompt
type Backend interface {
	// Name returns the backend name (e.g., "claude")
	Name() string

	// Complete sends one prompt and returns the raw response text
	Complete(ctx context.Context, prompt string) (string, error)
}
