// Package session owns the bearer token for the lifetime of one client session.
// It replaces ambient global auth state: callers construct a Session, Init it at
// session start, pass it to whatever needs a token, and Teardown it at the end.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/antaqor/yuki/internal/keyring"
	"github.com/antaqor/yuki/internal/logger"
)

// ErrNotAuthenticated is returned when an operation needs a token and none is usable
var ErrNotAuthenticated = errors.New("not signed in")

// TokenStore persists the token between runs
type TokenStore interface {
	GetToken() (string, error)
	SetToken(token string) error
	DeleteToken() error
}

// Session holds the current token in memory
type Session struct {
	store TokenStore
	now   func() time.Time

	mu      sync.RWMutex
	token   string
	subject string
	expiry  *time.Time
}

func New(store TokenStore) *Session {
	return &Session{store: store, now: time.Now}
}

// Init loads the persisted token. A missing token is not an error; the session
// simply starts unauthenticated.
func (s *Session) Init() error {
	token, err := s.store.GetToken()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			s.set("")
			return nil
		}
		return fmt.Errorf("failed to load session token: %w", err)
	}
	s.set(token)
	return nil
}

// Teardown forgets the in-memory token. The persisted token is kept.
func (s *Session) Teardown() {
	s.set("")
}

// Login persists a new token and makes it current
func (s *Session) Login(token string) error {
	if err := s.store.SetToken(token); err != nil {
		return err
	}
	s.set(token)
	return nil
}

// Logout removes the persisted token
func (s *Session) Logout() error {
	s.set("")
	if err := s.store.DeleteToken(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// Token returns the bearer token when one is present and not expired
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	if s.expiry != nil && !s.now().Before(*s.expiry) {
		return "", false
	}
	return s.token, true
}

// Expired reports whether a token is present but past its expiry
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.expiry != nil && !s.now().Before(*s.expiry)
}

// Expiry returns the token's exp claim, if it has one
func (s *Session) Expiry() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiry == nil {
		return time.Time{}, false
	}
	return *s.expiry, true
}

// Subject returns the token's sub claim, or "" for opaque tokens
func (s *Session) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

func (s *Session) set(token string) {
	subject, expiry := readClaims(token)
	s.mu.Lock()
	s.token = token
	s.subject = subject
	s.expiry = expiry
	s.mu.Unlock()
}

// readClaims inspects a JWT without verifying it; the backend remains the authority.
// Opaque tokens yield no claims.
func readClaims(token string) (string, *time.Time) {
	if token == "" {
		return "", nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		logger.Debug("Session token is not a JWT", "error", err)
		return "", nil
	}
	subject, _ := claims.GetSubject()
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return subject, nil
	}
	t := exp.Time
	return subject, &t
}

// Static is a fixed token source, handy for tests and one-shot commands
type Static string

func (s Static) Token() (string, bool) {
	return string(s), s != ""
}
