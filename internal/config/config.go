// Package config loads cove's settings from ~/.cove/config.yaml, COVE_*
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAPIURL is the backend root used when none is configured.
const DefaultAPIURL = "http://localhost:8080/api"

// Session backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the resolved configuration.
type Config struct {
	APIURL    string        `mapstructure:"api_url"`
	Session   SessionConfig `mapstructure:"session"`
	Google    GoogleConfig  `mapstructure:"google"`
	Log       LogConfig     `mapstructure:"log"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Dev       bool          `mapstructure:"dev"`

	// Dir holds the session, profile, provider and log files.
	Dir string `mapstructure:"-"`
	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// SessionConfig selects where the session token lives.
type SessionConfig struct {
	Backend   string `mapstructure:"backend"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisKey  string `mapstructure:"redis_key"`
}

// GoogleConfig holds the OAuth client used for Google sign-in.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Options tune Load. Zero values use the defaults.
type Options struct {
	// Path is an explicit config file. It must exist when set.
	Path string
	// Dir overrides the state directory (default $COVE_HOME or ~/.cove).
	Dir string
	// EnvFile is loaded into the environment first (default ".env").
	EnvFile string
}

// Load resolves the configuration. Missing files are not an error.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	dir, err := stateDir(opts.Dir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("session.backend", BackendFile)
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("session.redis_key", "cove:session")
	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "cove.log"))
	v.SetDefault("rate_limit", 0)
	v.SetDefault("dev", false)

	v.SetEnvPrefix("COVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.Path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Dir = dir
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api_url %q is not an http(s) URL", c.APIURL)
	}
	switch c.Session.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("config: unknown session.backend %q", c.Session.Backend)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate_limit must not be negative")
	}
	return nil
}

// SessionPath is the file holding the session token.
func (c *Config) SessionPath() string { return filepath.Join(c.Dir, "session") }

// ProfilesPath is the file holding locally saved profiles.
func (c *Config) ProfilesPath() string { return filepath.Join(c.Dir, "profiles.json") }

// ProviderPath is the file holding the identity provider's session.
func (c *Config) ProviderPath() string { return filepath.Join(c.Dir, "provider.json") }

func stateDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv("COVE_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home directory: %w", err)
	}
	return filepath.Join(home, ".cove"), nil
}
