package constants

import "time"

const (
	AppName            = "yuki"
	DefaultKeyringUser = "session-token"
	DefaultConfigDir   = "~/.config/yuki"
	Version            = "v0.3.0"

	// DateFormat is the calendar date format used by the booking API (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the slot time format used by the booking API (HH:MM, zero-padded)
	TimeFormat = "15:04"

	// API defaults
	DefaultAPIURL          = "sandbox"
	DefaultTimeout         = 25 * time.Second
	DefaultRateLimit       = 10.0
	DefaultRateBurst       = 5
	DefaultCacheTTL        = time.Duration(0)
	AvailabilityWindowDays = 7
	MaxAvailabilityDays    = 31

	// Sandbox constants
	SandboxDefaultAddr    = "127.0.0.1:4780"
	SandboxLockfileName   = "yuki-sandbox.lock"
	SandboxExecutablePref = "yuki"
	SandboxTokenTTL       = 12 * time.Hour
	SandboxDemoEmail      = "demo@yuki.local"
	SandboxDemoPassword   = "yuki-demo"

	// Journal constants
	JournalFileName = "journal.db"

	// Config constants
	ConfigFileName = "config"
	EnvPrefix      = "YUKI"
	EnvFileName    = ".env"
)
