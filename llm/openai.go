package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// openaiAdapter speaks the OpenAI chat-completions wire format. It also
// serves every backend exposing a compatible surface (DeepSeek, Groq,
// Ollama, self-hosted gateways) by swapping the base URL.
type openaiAdapter struct {
	name       string // provider label used in error messages
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *openaiAdapter) Generate(ctx context.Context, messages []Message, opts *Options) (string, error) {
	payload := chatCompletionRequest{
		Model:    a.model,
		Messages: ensureMessages(messages),
	}
	if opts != nil {
		payload.Temperature = opts.Temperature
		payload.TopP = opts.TopP
		payload.MaxTokens = opts.MaxOutputTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s request: %w", a.name, err)
	}

	url := strings.TrimSuffix(a.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", a.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiError(a.name, resp)
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode %s response: %w", a.name, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &NoContentError{Provider: a.name}
	}
	return parsed.Choices[0].Message.Content, nil
}
