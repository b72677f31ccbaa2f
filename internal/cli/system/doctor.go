package system

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/antaqor/yuki/internal/api"
	"github.com/antaqor/yuki/internal/cli"
	"github.com/antaqor/yuki/internal/keyring"
	"github.com/antaqor/yuki/internal/storage"
)

// warning marks a check that did not pass but does not fail the run
type warning struct {
	msg string
}

func (w *warning) Error() string { return w.msg }

func warn(msg string) error { return &warning{msg: msg} }

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	report := func(name string, err error) bool {
		var w *warning
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", name)
			return true
		case errors.As(err, &w):
			ctx.Printf("⚠ %s: WARNING\n", name)
			ctx.Printf("   %s\n", w.msg)
			return true
		default:
			ctx.Printf("❌ %s: FAIL\n", name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			return false
		}
	}
	skip := func(name, reason string) {
		ctx.Printf("⊘ %s: SKIPPED (%s)\n", name, reason)
	}

	// Check 1: Configuration
	if ctx.Config.File != "" {
		ctx.Printf("✓ Configuration: %s\n", ctx.Config.File)
	} else {
		ctx.Println("✓ Configuration: defaults and environment")
	}

	// Check 2: Keyring
	report("OS keyring", checkKeyring())

	// Check 3: Session token
	report("Session token", checkSession(ctx))

	// Check 4: Backend reachable
	reachable := report("Booking service", checkBackend(ctx))

	// Check 5: Token accepted (only if the backend is reachable and a token is present)
	if _, ok := ctx.Session.Token(); reachable && ok {
		report("Token accepted", checkTokenAccepted(ctx))
	} else {
		skip("Token accepted", "no usable token or service unreachable")
	}

	// Check 6: Journal
	if ctx.Config.JournalEnabled() {
		report("Booking journal", checkJournal(ctx))
	} else {
		skip("Booking journal", "not enabled")
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkSession(ctx *cli.Context) error {
	if ctx.Session.Expired() {
		return warn("session expired, run `yuki login`")
	}
	if _, ok := ctx.Session.Token(); !ok {
		return warn("not signed in, run `yuki login`")
	}
	return nil
}

func checkBackend(ctx *cli.Context) error {
	client, err := ctx.API()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.Timeout)
	defer cancel()
	if _, err := client.Locations(runCtx); err != nil {
		return fmt.Errorf("%s: %w", client.BaseURL(), err)
	}
	return nil
}

func checkTokenAccepted(ctx *cli.Context) error {
	client, err := ctx.API()
	if err != nil {
		return err
	}
	token, err := ctx.Token()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.Timeout)
	defer cancel()
	if _, err := client.History(runCtx, token); err != nil {
		if api.IsUnauthorized(err) {
			return fmt.Errorf("the service rejected the stored token, run `yuki login`")
		}
		return err
	}
	return nil
}

func checkJournal(ctx *cli.Context) error {
	target := ctx.Config.Journal
	if !storage.IsPostgres(target) {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			return warn("journal file will be created with the first booking")
		}
	}

	p, err := storage.New(target)
	if err != nil {
		return err
	}
	defer p.Close()
	if err := p.Load(); err != nil {
		return err
	}
	if _, err := p.ListBookings(1); err != nil {
		return err
	}
	return nil
}
