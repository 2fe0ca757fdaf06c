// Package session issues and resolves bearer session tokens for interactive
// API callers. Sessions live in the in-process cache: the service is a
// single-instance deployment, so no shared session store is needed.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/entremotivator/rentalappp1/internal/cache"
)

var ErrNotFound = errors.New("session_not_found")

const tokenBytes = 32

// Session is one authenticated interactive login.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager creates, resolves and revokes sessions.
type Manager struct {
	store cache.Cache[string, Session]
	ttl   time.Duration
}

func NewManager(store cache.Cache[string, Session], ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{store: store, ttl: ttl}
}

// Create issues a new opaque token bound to the identity.
func (m *Manager) Create(userID, email string) (Session, error) {
	token, err := newToken()
	if err != nil {
		return Session{}, err
	}

	now := time.Now().UTC()
	s := Session{
		Token:     token,
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.store.Set(token, s, m.ttl)
	return s, nil
}

// Resolve returns the session for a token. Expired and unknown tokens both
// resolve to ErrNotFound; callers cannot distinguish them.
func (m *Manager) Resolve(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNotFound
	}
	s, ok := m.store.Get(token)
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Revoke removes a session. Revoking an unknown token is a no-op.
func (m *Manager) Revoke(token string) {
	m.store.Delete(token)
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
