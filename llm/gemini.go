package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// geminiAdapter speaks the Gemini generateContent API. Gemini uses a
// "model" role instead of "assistant" and takes system content through
// systemInstruction.
type geminiAdapter struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (a *geminiAdapter) Generate(ctx context.Context, messages []Message, opts *Options) (string, error) {
	payload := buildGeminiRequest(ensureMessages(messages), opts)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimSuffix(a.baseURL, "/"), a.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiError("gemini", resp)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	text := parsed.JoinText()
	if text == "" {
		return "", &NoContentError{Provider: "gemini"}
	}
	return text, nil
}

func (r geminiResponse) JoinText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func buildGeminiRequest(messages []Message, opts *Options) geminiRequest {
	var payload geminiRequest
	var system []string

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			payload.Contents = append(payload.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			payload.Contents = append(payload.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(payload.Contents) == 0 {
		payload.Contents = append(payload.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: ""}}})
	}
	if len(system) > 0 {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}}}
	}
	if opts != nil {
		payload.GenerationConfig = &geminiGenerationConfig{
			Temperature:     opts.Temperature,
			TopP:            opts.TopP,
			TopK:            opts.TopK,
			MaxOutputTokens: opts.MaxOutputTokens,
		}
	}
	return payload
}
