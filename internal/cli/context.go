package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/antaqor/yuki/internal/api"
	"github.com/antaqor/yuki/internal/config"
	clierrors "github.com/antaqor/yuki/internal/errors"
	"github.com/antaqor/yuki/internal/logger"
	"github.com/antaqor/yuki/internal/models"
	"github.com/antaqor/yuki/internal/sandbox"
	"github.com/antaqor/yuki/internal/session"
	"github.com/antaqor/yuki/internal/storage"
	"github.com/antaqor/yuki/internal/wizard"
)

// Context is shared by every command
type Context struct {
	Config  *config.Config
	Session *session.Session
	// Out receives command output; stdout when nil
	Out io.Writer
	// HTTP replaces the API transport, for tests
	HTTP *http.Client

	// mu guards client and journal, which wizard callbacks reach from other goroutines
	mu      sync.Mutex
	client  *api.Client
	journal storage.Provider
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Printf writes command output
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

// Println writes a line of command output
func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

// APIURL resolves the backend base URL. The "sandbox" value is looked up
// through the lockfile of a running `yuki sandbox`.
func (c *Context) APIURL() (string, error) {
	if !c.Config.UsesSandbox() {
		return c.Config.APIURL, nil
	}
	url, err := sandbox.Discover(c.Config.ConfigDir)
	if err != nil {
		return "", clierrors.WithHint(err, "start one with `yuki sandbox` or set api_url / YUKI_API_URL")
	}
	return url, nil
}

// API returns the booking client, building it on first use
func (c *Context) API() (*api.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	url, err := c.APIURL()
	if err != nil {
		return nil, err
	}
	c.client = api.New(api.Config{
		BaseURL:   url,
		Timeout:   c.Config.Timeout,
		RateLimit: c.Config.RateLimit,
		RateBurst: c.Config.RateBurst,
		CacheTTL:  c.Config.CacheTTL,
		HTTP:      c.HTTP,
	})
	logger.Debug("API client ready", "url", url)
	return c.client, nil
}

// Journal opens the local booking journal. It returns nil when no journal is configured.
func (c *Context) Journal() (storage.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.journal != nil || !c.Config.JournalEnabled() {
		return c.journal, nil
	}
	p, err := storage.Open(c.Config.Journal)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	c.journal = p
	return p, nil
}

// RecordBooking writes a confirmed booking to the journal. Failures are logged
// and never surface to the booking flow.
func (c *Context) RecordBooking(b models.BookingSummary) {
	j, err := c.Journal()
	if err != nil {
		logger.Warn("Journal unavailable", "error", err)
		return
	}
	if j == nil {
		return
	}
	var apiURL string
	c.mu.Lock()
	if c.client != nil {
		apiURL = c.client.BaseURL()
	}
	c.mu.Unlock()
	entry := models.JournalEntry{Booking: b, APIURL: apiURL, RecordedAt: time.Now().UTC()}
	if err := j.SaveBooking(entry); err != nil {
		logger.Warn("Failed to record booking", "id", b.ID, "error", err)
	}
}

// NewWizard builds a booking wizard over the API client and the session.
// Confirmed bookings are recorded in the journal when one is configured.
func (c *Context) NewWizard(opts ...wizard.Option) (*wizard.Wizard, error) {
	client, err := c.API()
	if err != nil {
		return nil, err
	}
	base := []wizard.Option{
		wizard.WithAvailabilityDays(c.Config.AvailabilityDays),
		wizard.WithOnBooked(c.RecordBooking),
	}
	return wizard.New(client, c.Session, append(base, opts...)...), nil
}

// Login exchanges credentials for a token and stores it in the session
func (c *Context) Login(ctx context.Context, email, password string) (models.User, error) {
	client, err := c.API()
	if err != nil {
		return models.User{}, err
	}
	token, user, err := client.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return models.User{}, err
	}
	if err := c.Session.Login(token); err != nil {
		return models.User{}, fmt.Errorf("failed to store session token: %w", err)
	}
	logger.Info("Signed in", "user", user.ID)
	return user, nil
}

// Close releases the journal and forgets the in-memory session
func (c *Context) Close() error {
	if c.Session != nil {
		c.Session.Teardown()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.journal != nil {
		err := c.journal.Close()
		c.journal = nil
		return err
	}
	return nil
}

// Token returns the session token or an error telling the user to sign in
func (c *Context) Token() (string, error) {
	token, ok := c.Session.Token()
	if ok {
		return token, nil
	}
	if c.Session.Expired() {
		return "", clierrors.WithHint(session.ErrNotAuthenticated, "your session expired; run `yuki login`")
	}
	return "", clierrors.WithHint(session.ErrNotAuthenticated, "run `yuki login`")
}
