package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTransport marks failures that never produced a usable response: dial errors,
	// timeouts, cancelled contexts and malformed JSON.
	ErrTransport = errors.New("booking service unreachable")
	// ErrInvalidRequest is returned when a request fails local validation
	ErrInvalidRequest = errors.New("invalid request")
)

// Error is an application error reported by the backend: a non-2xx status or
// an envelope with success:false.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("booking API status=%d: %s", e.Status, e.Message)
}

// Unauthorized reports whether the backend rejected the bearer token
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// IsUnauthorized reports whether err is a 401 from the backend
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

// envelope is the common wrapper every endpoint uses
type envelope struct {
	Success *bool           `json:"success"`
	Error   json.RawMessage `json:"error"`
	Message json.RawMessage `json:"message"`
	Details json.RawMessage `json:"details"`
}

func (e envelope) failed() bool {
	return e.Success != nil && !*e.Success
}

// message extracts the human-readable text from error, message, then details
func (e envelope) message(fallback string) string {
	for _, raw := range []json.RawMessage{e.Error, e.Message, e.Details} {
		if text := rawText(raw); text != "" {
			return text
		}
	}
	return fallback
}

// rawText accepts a string, an object with a message field, or a list of either
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if m := strings.TrimSpace(obj.Message); m != "" {
			return m
		}
		return strings.TrimSpace(obj.Error)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var parts []string
		for _, item := range list {
			if text := rawText(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// decode unwraps an envelope into out, mapping failures onto the error taxonomy
func decode(status int, body []byte, out interface{}, fallback string) error {
	ok := status >= 200 && status < 300

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if !ok {
			return &Error{Status: status, Message: fallback}
		}
		return fmt.Errorf("%w: malformed response: %v", ErrTransport, err)
	}

	if !ok || env.failed() {
		return &Error{Status: status, Message: env.message(fallback)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: malformed payload: %v", ErrTransport, err)
	}
	return nil
}

// Message returns the text to show for err, using fallback when err carries none
func Message(err error, fallback string, network string) string {
	var apiErr *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	case errors.Is(err, ErrTransport):
		return network
	default:
		return fallback
	}
}
