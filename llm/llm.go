// Package llm normalizes heterogeneous text-generation APIs behind one
// adapter interface. Callers speak a three-role message vocabulary;
// each adapter renames roles and reshapes the request for its backend.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is the unit exchanged with providers and within conversation
// history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries generation parameters. Zero values mean "provider
// default" and are omitted from the wire request.
type Options struct {
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	TopK            int
}

// Adapter translates a provider-agnostic message list into one backend's
// native API call. A single attempt per call, no retries; transient
// failures surface to the caller.
type Adapter interface {
	Generate(ctx context.Context, messages []Message, opts *Options) (string, error)
}

// Config identifies a provider backend. Derived from the session's LLM
// credentials; never persisted.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NoContentError reports a well-formed provider response containing no
// extractable text.
type NoContentError struct {
	Provider string
}

func (e *NoContentError) Error() string {
	return fmt.Sprintf("%s response contained no text content", e.Provider)
}

// LLM calls can legitimately take minutes; the client timeout is the only
// cancellation mechanism beyond the request context.
var defaultHTTPClient = &http.Client{Timeout: 120 * time.Second}

// ensureMessages guarantees a non-empty message list so edge-case callers
// never crash an adapter.
func ensureMessages(messages []Message) []Message {
	if len(messages) == 0 {
		return []Message{{Role: RoleUser, Content: ""}}
	}
	return messages
}

// apiError extracts a human-readable message from a non-2xx provider
// response, falling back to a generic status line.
func apiError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("%s API error: %s", provider, parsed.Error.Message)
	}
	return fmt.Errorf("%s API error: %d", provider, resp.StatusCode)
}
