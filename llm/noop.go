package llm

import "context"

// NotConfiguredMessage is returned by the no-op adapter so every AI
// surface stays usable, just unhelpful, until a backend is configured.
const NotConfiguredMessage = "AI is not configured. Add an AI provider in Settings to enable summaries, insights and chat."

// noopAdapter is the default when no usable provider configuration
// exists. It never performs network I/O.
type noopAdapter struct{}

func (noopAdapter) Generate(_ context.Context, _ []Message, _ *Options) (string, error) {
	return NotConfiguredMessage, nil
}
