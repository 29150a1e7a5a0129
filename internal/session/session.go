// Package session maintains the client-side authentication cache: the
// user profile and token expiry live in the durable key-value store, while
// the bearer token itself is kept in the OS keyring.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/kvstore"
	"github.com/nicway1/truelog-cli/internal/model"
)

const profileKey = "session.profile"

// TokenStore abstracts the keyring so tests can substitute a map.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

const tokenKey = "bearer-token"

// profile is the persisted session record (everything except the token).
type profile struct {
	User      model.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Manager holds the in-memory session state and keeps it in sync with the
// persisted caches.
type Manager struct {
	kv     kvstore.Store
	tokens TokenStore
	log    zerolog.Logger

	user      *model.User
	token     string
	expiresAt time.Time
}

// New creates a session manager and restores any cached session.
func New(kv kvstore.Store, tokens TokenStore, log zerolog.Logger) *Manager {
	m := &Manager{kv: kv, tokens: tokens, log: log}
	m.restore()
	return m
}

// restore loads the cached profile and token. A missing or unreadable
// cache simply leaves the manager logged out.
func (m *Manager) restore() {
	var p profile
	ok, err := kvstore.GetJSON(m.kv, profileKey, &p)
	if err != nil {
		m.log.Warn().Err(err).Msg("discarding unreadable session profile")
		return
	}
	if !ok {
		return
	}

	token, err := m.tokens.Get(tokenKey)
	if err != nil || token == "" {
		return
	}

	m.user = &p.User
	m.token = token
	m.expiresAt = p.ExpiresAt
}

// Establish stores a freshly issued session. The expiry is recovered from
// the token's exp claim; tokens without one get a conservative 24h window.
func (m *Manager) Establish(user model.User, token string) error {
	expiresAt := expiryFromToken(token)

	if err := m.tokens.Set(tokenKey, token); err != nil {
		return fmt.Errorf("storing bearer token: %w", err)
	}
	if err := kvstore.SetJSON(m.kv, profileKey, profile{User: user, ExpiresAt: expiresAt}); err != nil {
		return fmt.Errorf("storing session profile: %w", err)
	}

	m.user = &user
	m.token = token
	m.expiresAt = expiresAt
	return nil
}

// Clear logs out: both persisted caches are removed. Best-effort; a
// failure to remove one cache does not stop the other.
func (m *Manager) Clear() {
	if err := m.tokens.Delete(tokenKey); err != nil {
		m.log.Warn().Err(err).Msg("removing bearer token")
	}
	if err := m.kv.Delete(profileKey); err != nil {
		m.log.Warn().Err(err).Msg("removing session profile")
	}

	m.user = nil
	m.token = ""
	m.expiresAt = time.Time{}
}

// Valid reports whether a non-expired session is present.
func (m *Manager) Valid() bool {
	return m.token != "" && time.Now().Before(m.expiresAt)
}

// User returns the cached profile, or nil when logged out.
func (m *Manager) User() *model.User {
	return m.user
}

// Token returns the current bearer token ("" when logged out). Suitable
// for use as an api.TokenSource.
func (m *Manager) Token() string {
	if !m.Valid() {
		return ""
	}
	return m.token
}

// expiryFromToken parses the JWT without verifying its signature (the
// client has no key material; the server enforces validity) and returns
// the exp claim.
func expiryFromToken(token string) time.Time {
	fallback := time.Now().Add(24 * time.Hour)

	parser := jwt.NewParser()
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return fallback
	}
	if claims.ExpiresAt == nil {
		return fallback
	}
	return claims.ExpiresAt.Time
}
