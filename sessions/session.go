package sessions

import "time"

// Session holds the per-browser state for the dashboard. Two kinds of
// credentials live inside it, each with its own expiry:
// 1. Upstream config - token and scope for the audit-log API
// 2. LLM config - provider, model and key for the AI backend
// The session itself idles out after SessionIdleTimeout of inactivity;
// a sub-record expiring never removes the session, and vice versa.
type Session struct {
	ID           string    // Opaque identifier handed to the browser via cookie
	CreatedAt    time.Time // When the session was allocated
	LastAccessed time.Time // Refreshed on every resolve
	Upstream     *UpstreamConfig
	LLM          *LLMConfig
}

// UpstreamConfig stores the credentials for the audit-log source API.
type UpstreamConfig struct {
	APIToken   string // Bearer token, never persisted or echoed in clear
	GroupID    string // Group scope (takes precedence over OrgID)
	OrgID      string // Org scope
	APIVersion string // Pinned REST API version
	ExpiresAt  time.Time
}

// LLMConfig stores the credentials for the AI text-generation backend.
type LLMConfig struct {
	Provider  string // Provider family name, matched case-insensitively
	Model     string
	APIKey    string
	BaseURL   string // Optional override for OpenAI-compatible endpoints
	ExpiresAt time.Time
}

// Kind selects one of the two credential sub-records.
type Kind string

const (
	KindUpstream Kind = "upstream"
	KindLLM      Kind = "llm"
)
