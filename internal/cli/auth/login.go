package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/antaqor/yuki/internal/api"
	"github.com/antaqor/yuki/internal/cli"
	"github.com/antaqor/yuki/internal/constants"
	clierrors "github.com/antaqor/yuki/internal/errors"
)

// LoginCmd signs in against the backend and stores the token in the OS keyring
type LoginCmd struct {
	Email    string `help:"Account email." short:"e"`
	Password string `help:"Account password. Prompted for when omitted." env:"YUKI_PASSWORD"`
	Token    string `help:"Store an existing bearer token instead of signing in."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	if token := strings.TrimSpace(c.Token); token != "" {
		if err := ctx.Session.Login(token); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		ctx.Println("✓ Token stored in the OS keyring")
		if exp, ok := ctx.Session.Expiry(); ok {
			ctx.Printf("  Expires %s\n", exp.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}

	email, password := c.Email, c.Password
	if email == "" || password == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Email").
					Value(&email).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("email is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("sign in cancelled: %w", err)
		}
	}

	runCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.Timeout)
	defer cancel()

	user, err := ctx.Login(runCtx, email, password)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) || errors.Is(err, api.ErrTransport) {
			return clierrors.WithMessage(err, api.Message(err, constants.MsgLoginFallback, constants.MsgNetworkError))
		}
		if errors.Is(err, api.ErrInvalidRequest) {
			return clierrors.WithHint(err, "check the email address and password")
		}
		return err
	}

	ctx.Printf("✓ Signed in as %s (%s)\n", user.Name, user.Email)
	return nil
}

// LogoutCmd removes the stored token
type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if err := ctx.Session.Logout(); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	ctx.Println("✓ Signed out")
	return nil
}

// WhoamiCmd reports the state of the stored session
type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	if ctx.Session.Expired() {
		ctx.Println("Session expired. Run `yuki login` to sign in again.")
		return nil
	}
	if _, ok := ctx.Session.Token(); !ok {
		ctx.Println("Not signed in.")
		return nil
	}

	subject := ctx.Session.Subject()
	if subject == "" {
		subject = "(opaque token)"
	}
	ctx.Printf("Signed in: %s\n", subject)
	if exp, ok := ctx.Session.Expiry(); ok {
		ctx.Printf("Expires:   %s\n", exp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
