package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/auditlens/auditlens/audit"
	"github.com/auditlens/auditlens/llm"
	"github.com/rs/zerolog/log"
)

const noSourceSummaryMessage = "No audit-log source is configured. Submit your API token to enable summaries."

// currentLLMConfig maps the session's stored credentials to a provider
// config. nil routes to the no-op adapter, which is exactly the wanted
// degradation for unconfigured sessions.
func (s *Server) currentLLMConfig(sessionID string) *llm.Config {
	cfg, ok := s.store.LLM(sessionID)
	if !ok {
		return nil
	}
	return &llm.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	}
}

// recentLogs fetches up to size records from the last 24 hours to feed
// the AI operations. Fetch failures degrade to an empty slice; the AI
// surfaces must answer regardless.
func (s *Server) recentLogs(r *http.Request, sessionID string, size int) []audit.LogItem {
	cfg, ok := s.store.Upstream(sessionID)
	if !ok {
		return nil
	}
	page, err := s.auditClient.Search(r.Context(), upstreamCredentials(cfg), audit.SearchParams{
		From: time.Now().Add(-24 * time.Hour),
		Size: size,
	})
	if err != nil {
		log.Warn().Err(err).Msg("fetching logs for AI context failed")
		return nil
	}
	return page.Items
}

// ExecutiveSummaryHandler always answers 200 with a displayable summary
// string, configured or not.
func (s *Server) ExecutiveSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		if _, ok := s.store.Upstream(sessionID); !ok {
			writeJSON(w, http.StatusOK, map[string]string{"summary": noSourceSummaryMessage})
			return
		}

		logs := s.recentLogs(r, sessionID, maxPageSize)
		summary := s.assistant.ExecutiveSummary(r.Context(), logs, s.currentLLMConfig(sessionID))
		writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
	}
}

// InsightsHandler returns a list of AI observations; the slice shape is
// guaranteed even on failure.
func (s *Server) InsightsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		logs := s.recentLogs(r, sessionID, maxPageSize)
		insights := s.assistant.Insights(r.Context(), logs, s.currentLLMConfig(sessionID))
		writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
	}
}

// ChatHandler answers one conversational turn and echoes the running
// transcript. Chat session ids are separate from browser sessions so a
// user can hold multiple conversations in parallel tabs.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		var body struct {
			Message   string `json:"message"`
			SessionID string `json:"sessionId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		message := strings.TrimSpace(body.Message)
		if message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		chatID := s.transcripts.Resolve(body.SessionID)
		history := s.transcripts.Get(chatID)
		logs := s.recentLogs(r, sessionID, chatMaxContextLogs)

		response := s.assistant.Chat(r.Context(), message, logs, history, s.currentLLMConfig(sessionID))

		messages := s.transcripts.Append(chatID,
			llm.Message{Role: llm.RoleUser, Content: message},
			llm.Message{Role: llm.RoleAssistant, Content: response},
		)

		writeJSON(w, http.StatusOK, map[string]any{
			"sessionId": chatID,
			"response":  response,
			"messages":  messages,
		})
	}
}

const chatMaxContextLogs = 50
