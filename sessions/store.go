package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const sessionIDBytes = 32

// Store maps opaque browser identifiers to sessions. It is constructed
// once at startup and injected into every request path; all access is
// guarded by a single RWMutex. Sub-records are replaced whole, so
// last-write-wins is the only consistency guarantee - and the only one
// needed, since each kind is set as a complete record.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration

	// now is swappable for TTL tests
	now func() time.Time
}

// NewStore creates a session store. Sessions untouched for longer than
// idleTimeout are treated as non-existent on next access.
func NewStore(idleTimeout time.Duration) *Store {
	return NewStoreWithClock(idleTimeout, time.Now)
}

// NewStoreWithClock creates a store reading time from clock. Tests use
// this to cross TTL boundaries without sleeping.
func NewStoreWithClock(idleTimeout time.Duration, clock func() time.Time) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		now:         clock,
	}
}

// Resolve returns the live session matching hint, refreshing its
// last-accessed time. When hint is empty, unknown or idle-expired a new
// session is allocated and created=true signals the caller to write the
// id back to the client.
func (s *Store) Resolve(hint string) (id string, created bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if hint != "" {
		if session, ok := s.sessions[hint]; ok {
			if now.Sub(session.LastAccessed) <= s.idleTimeout {
				session.LastAccessed = now
				return session.ID, false
			}
			// Idle-expired: purge and fall through to allocation
			delete(s.sessions, hint)
		}
	}

	id = newSessionID()
	s.sessions[id] = &Session{
		ID:           id,
		CreatedAt:    now,
		LastAccessed: now,
	}
	return id, true
}

// SetUpstream overwrites the session's upstream credentials with a fresh
// expiry of now+ttl. Unknown session ids are ignored.
func (s *Store) SetUpstream(id string, cfg UpstreamConfig, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return
	}
	cfg.ExpiresAt = s.now().Add(ttl)
	session.Upstream = &cfg
}

// SetLLM overwrites the session's LLM credentials with a fresh expiry of
// now+ttl. Unknown session ids are ignored.
func (s *Store) SetLLM(id string, cfg LLMConfig, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return
	}
	cfg.ExpiresAt = s.now().Add(ttl)
	session.LLM = &cfg
}

// Upstream returns a copy of the session's upstream credentials, or
// ok=false when absent or expired. Expiry detection deletes the
// sub-record but leaves the session untouched.
func (s *Store) Upstream(id string) (UpstreamConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.Upstream == nil {
		return UpstreamConfig{}, false
	}
	if !s.now().Before(session.Upstream.ExpiresAt) {
		session.Upstream = nil
		return UpstreamConfig{}, false
	}
	return *session.Upstream, true
}

// LLM returns a copy of the session's LLM credentials, or ok=false when
// absent or expired.
func (s *Store) LLM(id string) (LLMConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.LLM == nil {
		return LLMConfig{}, false
	}
	if !s.now().Before(session.LLM.ExpiresAt) {
		session.LLM = nil
		return LLMConfig{}, false
	}
	return *session.LLM, true
}

// Extend pushes the expiry of a live sub-record forward by extra.
// Returns false when no live config of that kind exists; an expired
// record is never resurrected.
func (s *Store) Extend(id string, kind Kind, extra time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return false
	}

	now := s.now()
	switch kind {
	case KindUpstream:
		if session.Upstream == nil || !now.Before(session.Upstream.ExpiresAt) {
			return false
		}
		session.Upstream.ExpiresAt = session.Upstream.ExpiresAt.Add(extra)
	case KindLLM:
		if session.LLM == nil || !now.Before(session.LLM.ExpiresAt) {
			return false
		}
		session.LLM.ExpiresAt = session.LLM.ExpiresAt.Add(extra)
	default:
		return false
	}
	return true
}

// RemainingMinutes reports how many whole minutes a live sub-record has
// left, floored at zero.
func (s *Store) RemainingMinutes(id string, kind Kind) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return 0, false
	}

	var expiresAt time.Time
	switch kind {
	case KindUpstream:
		if session.Upstream == nil {
			return 0, false
		}
		expiresAt = session.Upstream.ExpiresAt
	case KindLLM:
		if session.LLM == nil {
			return 0, false
		}
		expiresAt = session.LLM.ExpiresAt
	default:
		return 0, false
	}

	remaining := expiresAt.Sub(s.now())
	if remaining < 0 {
		return 0, true
	}
	return int(remaining / time.Minute), true
}

// ClearConfig removes one credential sub-record without touching the other.
func (s *Store) ClearConfig(id string, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return
	}
	switch kind {
	case KindUpstream:
		session.Upstream = nil
	case KindLLM:
		session.LLM = nil
	}
}

// ClearSession removes the whole session.
func (s *Store) ClearSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live sessions. Used by the sweep log line.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepExpired removes sessions idle beyond the timeout and drops expired
// sub-records from the survivors. Returns the number of sessions removed.
// Correctness does not depend on the sweep; it only bounds memory.
func (s *Store) SweepExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.LastAccessed) > s.idleTimeout {
			delete(s.sessions, id)
			removed++
			continue
		}
		if session.Upstream != nil && !now.Before(session.Upstream.ExpiresAt) {
			session.Upstream = nil
		}
		if session.LLM != nil && !now.Before(session.LLM.ExpiresAt) {
			session.LLM = nil
		}
	}

	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(s.sessions)).Msg("session sweep")
	}
	return removed
}

// newSessionID returns an unpredictable identifier from a
// cryptographically strong source.
func newSessionID() string {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic("sessions: rand.Read: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
