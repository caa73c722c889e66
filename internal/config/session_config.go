package config

import "time"

type SessionConfig interface {
	GetSessionIdleTimeout() time.Duration
	GetDefaultConfigTTL() time.Duration
	GetSweepInterval() time.Duration
	GetSessionCookieName() string
}

type Session struct{}

var _ SessionConfig = Session{}

// GetSessionIdleTimeout returns how long a session may sit untouched
// before it is treated as non-existent.
func (Session) GetSessionIdleTimeout() time.Duration {
	return 30 * time.Minute
}

// GetDefaultConfigTTL returns the lifetime applied to stored credentials
// when the caller does not request one.
func (Session) GetDefaultConfigTTL() time.Duration {
	return 30 * time.Minute
}

// GetSweepInterval returns how often the background sweep removes idle
// sessions. Lazy expiry keeps reads correct; the sweep keeps memory bounded.
func (Session) GetSweepInterval() time.Duration {
	return 5 * time.Minute
}

func (Session) GetSessionCookieName() string {
	return "auditlens_session"
}
