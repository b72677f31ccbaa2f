// Package clitest wires a cli.Context to an in-process sandbox for command tests
package clitest

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/antaqor/yuki/internal/cli"
	"github.com/antaqor/yuki/internal/config"
	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/keyring"
	"github.com/antaqor/yuki/internal/sandbox"
	"github.com/antaqor/yuki/internal/session"
)

// Monday is the sandbox clock: every slot of the first day is still ahead
var Monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// Env is a command context talking to a fresh sandbox
type Env struct {
	Ctx    *cli.Context
	Out    *bytes.Buffer
	Server *httptest.Server
}

// New starts a sandbox and returns a context pointed at it. The OS keyring is
// replaced by go-keyring's in-memory mock.
func New(t *testing.T) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gokeyring.MockInit()

	srv, err := sandbox.New(sandbox.Options{
		Secret:   []byte("clitest-secret"),
		// the session checks expiry against the real clock
		TokenTTL: 100 * 365 * 24 * time.Hour,
		Now:      func() time.Time { return Monday },
	})
	if err != nil {
		t.Fatalf("failed to create sandbox: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	sess := session.New(keyring.Store{})
	if err := sess.Init(); err != nil {
		t.Fatalf("failed to init session: %v", err)
	}

	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Config: &config.Config{
			APIURL:           ts.URL,
			Timeout:          5 * time.Second,
			AvailabilityDays: constants.AvailabilityWindowDays,
			ConfigDir:        t.TempDir(),
		},
		Session: sess,
		Out:     out,
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return &Env{Ctx: ctx, Out: out, Server: ts}
}

// SignIn logs the demo account in
func (e *Env) SignIn(t *testing.T) {
	t.Helper()
	if _, err := e.Ctx.Login(context.Background(), constants.SandboxDemoEmail, constants.SandboxDemoPassword); err != nil {
		t.Fatalf("failed to sign in: %v", err)
	}
	e.Out.Reset()
}

// OpenSlot returns the first bookable slot of an artist
func (e *Env) OpenSlot(t *testing.T, locationID, artistID string) (string, string) {
	t.Helper()
	client, err := e.Ctx.API()
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	days, err := client.Availability(context.Background(), locationID, artistID, constants.AvailabilityWindowDays)
	if err != nil {
		t.Fatalf("failed to load availability: %v", err)
	}
	for _, d := range days {
		for _, s := range d.Slots {
			if s.Available {
				return d.Date, s.Time
			}
		}
	}
	t.Fatalf("no open slot for %s at %s", artistID, locationID)
	return "", ""
}
