package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/antaqor/yuki/internal/constants"
)

// Config is the resolved client configuration
type Config struct {
	APIURL           string        `mapstructure:"api_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	RateBurst        int           `mapstructure:"rate_burst"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	AvailabilityDays int           `mapstructure:"availability_days"`
	Journal          string        `mapstructure:"journal"`
	Debug            bool          `mapstructure:"debug"`
	LogLevel         string        `mapstructure:"log_level"`

	// ConfigDir holds logs, the sandbox lockfile and the default journal
	ConfigDir string `mapstructure:"-"`
	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// Options controls where configuration is read from
type Options struct {
	// ConfigFile is an explicit config file; it must exist when set
	ConfigFile string
	// ConfigDir is searched for config.yaml when ConfigFile is empty
	ConfigDir string
	// EnvFile is a dotenv file loaded before the environment is read.
	// A missing file is ignored.
	EnvFile string
}

// Load resolves configuration from defaults, the config file, a .env file and
// YUKI_* environment variables, in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	configDir, err := ExpandPath(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	if configDir == "" {
		configDir, err = ExpandPath(constants.DefaultConfigDir)
		if err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = constants.EnvFileName
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		path, err := ExpandPath(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(constants.ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigDir = configDir
	cfg.File = v.ConfigFileUsed()

	if cfg.Journal != "" && !IsPostgresDSN(cfg.Journal) {
		if cfg.Journal, err = ExpandPath(cfg.Journal); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", constants.DefaultAPIURL)
	v.SetDefault("timeout", constants.DefaultTimeout)
	v.SetDefault("rate_limit", constants.DefaultRateLimit)
	v.SetDefault("rate_burst", constants.DefaultRateBurst)
	v.SetDefault("cache_ttl", constants.DefaultCacheTTL)
	v.SetDefault("availability_days", constants.AvailabilityWindowDays)
	v.SetDefault("journal", "")
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "warn")
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	if c.AvailabilityDays < 1 || c.AvailabilityDays > constants.MaxAvailabilityDays {
		return fmt.Errorf("availability_days must be between 1 and %d, got %d", constants.MaxAvailabilityDays, c.AvailabilityDays)
	}
	return nil
}

// UsesSandbox reports whether the API URL should be discovered from a running sandbox
func (c *Config) UsesSandbox() bool {
	u := strings.TrimSpace(c.APIURL)
	return u == "" || strings.EqualFold(u, constants.DefaultAPIURL)
}

// JournalEnabled reports whether bookings are recorded locally
func (c *Config) JournalEnabled() bool {
	return strings.TrimSpace(c.Journal) != ""
}

// IsPostgresDSN reports whether s is a PostgreSQL connection string
func IsPostgresDSN(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// ExpandPath resolves a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
