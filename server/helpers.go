package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// writeError emits the uniform {"error": message} failure shape. The
// message must be short and displayable; never a stack trace.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// resolveSession returns the caller's session id, allocating one and
// writing the cookie back when needed. The cookie is HttpOnly and
// SameSite-Strict; the client never reads or sets it directly.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) string {
	var hint string
	if cookie, err := r.Cookie(s.config.GetSessionCookieName()); err == nil {
		hint = cookie.Value
	}

	id, created := s.store.Resolve(hint)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     s.config.GetSessionCookieName(),
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   int(s.config.GetSessionIdleTimeout().Seconds()),
		})
	}
	return id
}

// decodeBody parses a JSON request body into dst, rejecting unknown
// fields before any I/O happens.
func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
