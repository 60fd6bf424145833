package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

// Defaults for the runtime configuration. The session package owns the
// canonical values; these aliases keep flag declarations local.
const (
	DefaultAPIURL        = trestle.DefaultBaseURL
	DefaultTokenLifetime = trestle.DefaultTokenLifetime
	DefaultExpiryMargin  = trestle.DefaultExpiryMargin
	DefaultLoginAddr     = trestle.DefaultLoginAddr
	DefaultLoginTimeout  = trestle.DefaultLoginTimeout
)

// EnvPrefix is the prefix for all environment variables, e.g. TRESTLE_EMAIL.
const EnvPrefix = "TRESTLE"

// Config holds the runtime configuration for trestle-mcp.
//
// Values are resolved in the usual precedence order: command-line flag,
// environment variable (TRESTLE_*), config file, built-in default.
type Config struct {
	// APIURL is the base URL of the Trestle backend, including any path
	// prefix (default: https://api.trestle.io/v1).
	APIURL string

	// Email and Password are ambient fallback credentials for
	// non-interactive acquisition. Usually supplied via TRESTLE_EMAIL and
	// TRESTLE_PASSWORD rather than flags.
	Email    string
	Password string

	// SessionFile overrides the location of the persisted session record.
	// Empty means the default under the user's config directory.
	SessionFile string

	// TokenLifetime is the assumed lifetime of a backend-issued access
	// token. The backend does not report one, so this is a local estimate.
	TokenLifetime time.Duration

	// ExpiryMargin is the safety buffer subtracted from TokenLifetime when
	// computing the local expiry. A session is treated as stale this much
	// before the token would actually lapse.
	ExpiryMargin time.Duration

	// LoginAddr is the loopback address the interactive login listener
	// binds to.
	LoginAddr string

	// LoginTimeout bounds how long an interactive login flow waits for a
	// credential submission.
	LoginTimeout time.Duration
}

// BindFlags declares the configuration flags on the given flag set and binds
// them into viper, together with the TRESTLE_* environment variables.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("api-url", DefaultAPIURL, "base URL of the Trestle backend API")
	flags.String("session-file", "", "path of the persisted session record (default: user config dir)")
	flags.Duration("token-lifetime", DefaultTokenLifetime, "assumed lifetime of a backend access token")
	flags.Duration("expiry-margin", DefaultExpiryMargin, "safety margin subtracted from the token lifetime")
	flags.String("login-addr", DefaultLoginAddr, "loopback address for the interactive login listener")
	flags.Duration("login-timeout", DefaultLoginTimeout, "how long an interactive login waits for a submission")

	bindFlag := func(name string) {
		flag := flags.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("flag %q not found", name))
		}
		if err := viper.BindPFlag(name, flag); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, name := range []string{
		"api-url", "session-file", "token-lifetime", "expiry-margin",
		"login-addr", "login-timeout",
	} {
		bindFlag(name)
	}
}

// Load resolves the effective configuration. An optional config file
// (config.yaml in the trestle-mcp config directory, or the explicit path
// given) is layered underneath flags and environment variables.
func Load(configFile string) (*Config, error) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(Dir())
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		APIURL:        stringOrDefault(viper.GetString("api-url"), DefaultAPIURL),
		Email:         viper.GetString("email"),
		Password:      viper.GetString("password"),
		SessionFile:   viper.GetString("session-file"),
		TokenLifetime: durationOrDefault(viper.GetDuration("token-lifetime"), DefaultTokenLifetime),
		ExpiryMargin:  durationOrDefault(viper.GetDuration("expiry-margin"), DefaultExpiryMargin),
		LoginAddr:     stringOrDefault(viper.GetString("login-addr"), DefaultLoginAddr),
		LoginTimeout:  durationOrDefault(viper.GetDuration("login-timeout"), DefaultLoginTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is consistent.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api-url %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api-url %q: scheme must be http or https", c.APIURL)
	}
	if c.TokenLifetime <= 0 {
		return fmt.Errorf("token-lifetime must be positive, got %s", c.TokenLifetime)
	}
	if c.ExpiryMargin <= 0 {
		return fmt.Errorf("expiry-margin must be positive, got %s", c.ExpiryMargin)
	}
	if c.ExpiryMargin >= c.TokenLifetime {
		return fmt.Errorf("expiry-margin %s must be shorter than token-lifetime %s", c.ExpiryMargin, c.TokenLifetime)
	}
	if c.LoginTimeout <= 0 {
		return fmt.Errorf("login-timeout must be positive, got %s", c.LoginTimeout)
	}
	return nil
}

// HasAmbientCredentials reports whether fallback credentials are configured
// for non-interactive acquisition.
func (c *Config) HasAmbientCredentials() bool {
	return c.Email != "" && c.Password != ""
}

// Dir returns the trestle-mcp configuration directory for the current user.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		// Fall back to a dotted directory in the home directory, which is
		// where UserConfigDir points on most systems anyway.
		home, herr := os.UserHomeDir()
		if herr != nil {
			return ".trestle-mcp"
		}
		return filepath.Join(home, ".trestle-mcp")
	}
	return filepath.Join(base, "trestle-mcp")
}

// SessionPath returns the effective location of the persisted session
// record: the configured override, or the session package's default.
func (c *Config) SessionPath() string {
	if c.SessionFile != "" {
		return c.SessionFile
	}
	return trestle.DefaultSessionPath()
}

func stringOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func durationOrDefault(value, fallback time.Duration) time.Duration {
	if value == 0 {
		return fallback
	}
	return value
}
