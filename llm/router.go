package llm

import (
	"net/http"
	"strings"
)

// Router selects an adapter for a provider configuration. Missing or
// incomplete configuration routes to the no-op adapter rather than
// failing: the dashboard must keep answering even with no AI backend.
type Router struct {
	httpClient *http.Client
}

func NewRouter() *Router {
	return &Router{httpClient: defaultHTTPClient}
}

// NewRouterWithClient injects the HTTP client used by every adapter.
// Tests use this to stub provider endpoints and count network calls.
func NewRouterWithClient(client *http.Client) *Router {
	return &Router{httpClient: client}
}

// ForConfig dispatches on the provider family, matched case-insensitively.
// Unrecognized provider names degrade to the no-op adapter; new names
// should never crash the request path.
func (r *Router) ForConfig(cfg *Config) Adapter {
	if cfg == nil {
		return noopAdapter{}
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	model := strings.TrimSpace(cfg.Model)
	apiKey := strings.TrimSpace(cfg.APIKey)

	if provider == "" || model == "" {
		return noopAdapter{}
	}
	// Ollama runs locally and needs no key; everyone else does.
	if apiKey == "" && provider != "ollama" {
		return noopAdapter{}
	}

	switch provider {
	case "openai":
		return r.compatAdapter(provider, cfg, "https://api.openai.com/v1")
	case "deepseek":
		return r.compatAdapter(provider, cfg, "https://api.deepseek.com")
	case "groq":
		return r.compatAdapter(provider, cfg, "https://api.groq.com/openai/v1")
	case "ollama":
		return r.compatAdapter(provider, cfg, "http://localhost:11434/v1")
	case "custom":
		return r.compatAdapter(provider, cfg, "")
	case "anthropic", "claude":
		return &anthropicAdapter{
			baseURL:    baseOrDefault(cfg.BaseURL, anthropicBaseURL),
			model:      model,
			apiKey:     apiKey,
			httpClient: r.httpClient,
		}
	case "gemini", "google":
		return &geminiAdapter{
			baseURL:    baseOrDefault(cfg.BaseURL, geminiBaseURL),
			model:      model,
			apiKey:     apiKey,
			httpClient: r.httpClient,
		}
	default:
		return noopAdapter{}
	}
}

// compatAdapter builds the OpenAI-compatible adapter for the given
// provider alias and default base URL.
func (r *Router) compatAdapter(name string, cfg *Config, defaultBase string) Adapter {
	base := baseOrDefault(cfg.BaseURL, defaultBase)
	if base == "" {
		// "custom" without a base URL has nowhere to send requests
		return noopAdapter{}
	}
	return &openaiAdapter{
		name:       name,
		baseURL:    base,
		model:      strings.TrimSpace(cfg.Model),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: r.httpClient,
	}
}

func baseOrDefault(base, fallback string) string {
	if trimmed := strings.TrimSpace(base); trimmed != "" {
		return trimmed
	}
	return fallback
}
