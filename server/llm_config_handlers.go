package server

import (
	"net/http"
	"strings"

	"github.com/auditlens/auditlens/sessions"
)

type llmConfigResponse struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Configured bool   `json:"configured"`
}

// GetLLMConfigHandler reports which provider and model are configured.
// The API key never leaves the server, masked or otherwise.
func (s *Server) GetLLMConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		cfg, ok := s.store.LLM(sessionID)
		if !ok {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, llmConfigResponse{Provider: cfg.Provider, Model: cfg.Model, Configured: true})
	}
}

// SetLLMConfigHandler stores the AI backend credentials. No connectivity
// test is performed; a bad key fails lazily at generation time. Unknown
// provider names are accepted and degrade to the no-op adapter later.
func (s *Server) SetLLMConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		var body struct {
			Provider string `json:"provider"`
			Model    string `json:"model"`
			APIKey   string `json:"apiKey"`
			BaseURL  string `json:"baseUrl"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		provider := strings.TrimSpace(body.Provider)
		model := strings.TrimSpace(body.Model)
		apiKey := strings.TrimSpace(body.APIKey)
		switch {
		case provider == "":
			writeError(w, http.StatusBadRequest, "provider is required")
			return
		case model == "":
			writeError(w, http.StatusBadRequest, "model is required")
			return
		case apiKey == "" && !strings.EqualFold(provider, "ollama"):
			writeError(w, http.StatusBadRequest, "apiKey is required")
			return
		}

		cfg := sessions.LLMConfig{
			Provider: provider,
			Model:    model,
			APIKey:   apiKey,
			BaseURL:  strings.TrimSpace(body.BaseURL),
		}
		s.store.SetLLM(sessionID, cfg, s.config.GetDefaultConfigTTL())

		writeJSON(w, http.StatusOK, llmConfigResponse{Provider: provider, Model: model, Configured: true})
	}
}

// ClearLLMConfigHandler removes the AI credentials, leaving the upstream
// configuration untouched.
func (s *Server) ClearLLMConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)
		s.store.ClearConfig(sessionID, sessions.KindLLM)
		writeJSON(w, http.StatusOK, map[string]string{"message": "AI configuration cleared"})
	}
}
