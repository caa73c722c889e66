package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	anthropicBaseURL   = "https://api.anthropic.com"
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 4096 // max_tokens is mandatory on the Messages API
)

// anthropicAdapter speaks the Anthropic Messages API. The conversation
// is two-party; system content moves into the dedicated system field.
type anthropicAdapter struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	TopK        int       `json:"top_k,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *anthropicAdapter) Generate(ctx context.Context, messages []Message, opts *Options) (string, error) {
	system, conversation := splitSystem(ensureMessages(messages))

	payload := anthropicRequest{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  conversation,
	}
	if opts != nil {
		if opts.MaxOutputTokens > 0 {
			payload.MaxTokens = opts.MaxOutputTokens
		}
		payload.Temperature = opts.Temperature
		payload.TopP = opts.TopP
		payload.TopK = opts.TopK
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode anthropic request: %w", err)
	}

	url := strings.TrimSuffix(a.baseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiError("anthropic", resp)
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", &NoContentError{Provider: "anthropic"}
}

// splitSystem merges system messages into one string and returns the
// remaining user/assistant conversation. An all-system input still needs
// one user turn for the API to accept it.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	conversation := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		conversation = append(conversation, m)
	}
	if len(conversation) == 0 {
		conversation = append(conversation, Message{Role: RoleUser, Content: ""})
	}
	return strings.Join(system, "\n\n"), conversation
}
