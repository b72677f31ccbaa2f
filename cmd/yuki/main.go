package main

import (
	"github.com/alecthomas/kong"

	"github.com/antaqor/yuki/internal/cli"
	"github.com/antaqor/yuki/internal/cli/auth"
	"github.com/antaqor/yuki/internal/cli/booking"
	"github.com/antaqor/yuki/internal/cli/journal"
	"github.com/antaqor/yuki/internal/cli/system"
	"github.com/antaqor/yuki/internal/config"
	"github.com/antaqor/yuki/internal/constants"
	clierrors "github.com/antaqor/yuki/internal/errors"
	"github.com/antaqor/yuki/internal/keyring"
	"github.com/antaqor/yuki/internal/logger"
	"github.com/antaqor/yuki/internal/session"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path (defaults to ~/.config/yuki/config.yaml when present)." type:"path"`
	APIURL  string `help:"Booking service base URL, or \"sandbox\" to use a running 'yuki sandbox'." name:"api-url"`
	Debug   bool   `help:"Log at debug level, also to stderr."`

	Tui          system.TuiCmd           `cmd:"" help:"Launch the interactive booking wizard." default:"1"`
	Login        auth.LoginCmd           `cmd:"" help:"Sign in and store the session token in the OS keyring."`
	Logout       auth.LogoutCmd          `cmd:"" help:"Remove the stored session token."`
	Whoami       auth.WhoamiCmd          `cmd:"" help:"Show the stored session."`
	Locations    booking.LocationsCmd    `cmd:"" help:"List salon locations."`
	Artists      booking.ArtistsCmd      `cmd:"" help:"List artists at a location."`
	Availability booking.AvailabilityCmd `cmd:"" help:"Show open slots for an artist."`
	Book         booking.BookCmd         `cmd:"" help:"Book an appointment."`
	History      booking.HistoryCmd      `cmd:"" help:"List your bookings."`
	Journal      struct {
		List journal.JournalListCmd `cmd:"" help:"List bookings recorded on this machine." default:"1"`
	} `cmd:"" help:"Inspect the local booking journal."`
	Sandbox system.SandboxCmd `cmd:"" help:"Run the local sandbox booking service."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Book an appointment at the salon from your terminal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":      constants.Version,
			"sandbox_addr": constants.SandboxDefaultAddr,
		},
	)

	cfg, err := config.Load(config.Options{ConfigFile: CLI.Config})
	if err != nil {
		clierrors.Fatal(clierrors.WithHint(err, "check config.yaml and YUKI_* environment variables"))
	}
	if CLI.APIURL != "" {
		cfg.APIURL = CLI.APIURL
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: cfg.ConfigDir,
		Level:     cfg.LogLevel,
	}); err != nil {
		clierrors.Fatalf("failed to initialize logger in %s: %v", cfg.ConfigDir, err)
	}
	logger.Debug("Starting", "command", ctx.Command(), "config", cfg.File, "api_url", cfg.APIURL)

	sess := session.New(keyring.Store{})
	if err := sess.Init(); err != nil {
		// commands that need a token report it themselves
		logger.Warn("Session unavailable", "error", err)
	}

	appCtx := &cli.Context{
		Config:  cfg,
		Session: sess,
	}

	err = ctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Warn("Failed to close journal", "error", cerr)
	}
	clierrors.Fatal(err)
}
