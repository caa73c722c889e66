package server

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/auditlens/auditlens/internal/errors"
	"github.com/auditlens/auditlens/internal/utils"
	"github.com/auditlens/auditlens/sessions"
	"github.com/rs/zerolog/log"
)

const tokenMask = "***"

type upstreamConfigResponse struct {
	GroupID          string `json:"groupId,omitempty"`
	OrgID            string `json:"orgId,omitempty"`
	APIVersion       string `json:"apiVersion"`
	SnykAPIToken     string `json:"snykApiToken"`
	ExpiresInMinutes int    `json:"expiresInMinutes"`
}

func (s *Server) upstreamResponse(sessionID string, cfg sessions.UpstreamConfig) upstreamConfigResponse {
	minutes, _ := s.store.RemainingMinutes(sessionID, sessions.KindUpstream)
	return upstreamConfigResponse{
		GroupID:          cfg.GroupID,
		OrgID:            cfg.OrgID,
		APIVersion:       cfg.APIVersion,
		SnykAPIToken:     tokenMask, // token never returned in clear
		ExpiresInMinutes: minutes,
	}
}

// GetConfigHandler returns the session's upstream configuration with the
// token masked, or null when nothing live is stored.
func (s *Server) GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		cfg, ok := s.store.Upstream(sessionID)
		if !ok {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, s.upstreamResponse(sessionID, cfg))
	}
}

// SetConfigHandler validates and stores upstream credentials. A live
// connectivity check runs first; failed credentials are never stored.
func (s *Server) SetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		var body struct {
			SnykAPIToken string `json:"snykApiToken"`
			GroupID      string `json:"groupId"`
			OrgID        string `json:"orgId"`
			APIVersion   string `json:"apiVersion"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token := strings.TrimSpace(body.SnykAPIToken)
		if token == "" {
			writeError(w, http.StatusBadRequest, apperrors.ErrMissingToken.Error())
			return
		}
		groupID := strings.TrimSpace(body.GroupID)
		orgID := strings.TrimSpace(body.OrgID)
		if groupID == "" && orgID == "" {
			writeError(w, http.StatusBadRequest, "groupId or orgId is required")
			return
		}
		apiVersion := strings.TrimSpace(body.APIVersion)
		if apiVersion == "" {
			apiVersion = s.config.GetSnykAPIVersion()
		}

		creds := upstreamCredentials(sessions.UpstreamConfig{
			APIToken: token, GroupID: groupID, OrgID: orgID, APIVersion: apiVersion,
		})
		if err := s.auditClient.Ping(r.Context(), creds); err != nil {
			log.Warn().Err(err).Msg("upstream connectivity check failed")
			writeError(w, http.StatusBadRequest, "connectivity check failed: "+err.Error())
			return
		}

		cfg := sessions.UpstreamConfig{
			APIToken:   token,
			GroupID:    groupID,
			OrgID:      orgID,
			APIVersion: apiVersion,
		}
		s.store.SetUpstream(sessionID, cfg, s.config.GetDefaultConfigTTL())

		stored, _ := s.store.Upstream(sessionID)
		writeJSON(w, http.StatusOK, s.upstreamResponse(sessionID, stored))
	}
}

// ClearConfigHandler removes the upstream credentials, leaving the LLM
// configuration untouched.
func (s *Server) ClearConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)
		s.store.ClearConfig(sessionID, sessions.KindUpstream)
		writeJSON(w, http.StatusOK, map[string]string{"message": "configuration cleared"})
	}
}

// ExtendConfigHandler pushes the upstream credential expiry forward.
func (s *Server) ExtendConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		var body struct {
			Minutes *int `json:"minutes"`
		}
		if r.ContentLength > 0 {
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		minutes := utils.Value(body.Minutes)
		if minutes <= 0 {
			minutes = int(s.config.GetDefaultConfigTTL() / time.Minute)
		}

		if !s.store.Extend(sessionID, sessions.KindUpstream, time.Duration(minutes)*time.Minute) {
			writeError(w, http.StatusBadRequest, "no configuration to extend")
			return
		}

		remaining, _ := s.store.RemainingMinutes(sessionID, sessions.KindUpstream)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":          "configuration extended",
			"expiresInMinutes": remaining,
		})
	}
}
