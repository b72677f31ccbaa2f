package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/antaqor/yuki/internal/constants"
)

var (
	// ErrNotFound is returned when no session token is stored in the keyring
	ErrNotFound = errors.New("session token not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Store reads and writes the bearer token for one keyring account.
// The zero value uses the default account.
type Store struct {
	User string
}

func (s Store) user() string {
	if s.User == "" {
		return constants.DefaultKeyringUser
	}
	return s.User
}

// GetToken retrieves the session token from the OS keyring.
// Returns ErrNotFound if no token is stored.
func (s Store) GetToken() (string, error) {
	token, err := keyring.Get(constants.AppName, s.user())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

// SetToken stores the session token in the OS keyring.
func (s Store) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session token cannot be empty")
	}
	if err := keyring.Set(constants.AppName, s.user(), token); err != nil {
		return fmt.Errorf("failed to store session token in keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the session token from the OS keyring.
func (s Store) DeleteToken() error {
	err := keyring.Delete(constants.AppName, s.user())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete session token from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
