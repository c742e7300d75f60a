// config/config.go
// Description: loads and validates the toolkit configuration from a JSON file, the
// environment (including a .env file) and built-in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
)

const (
	DefaultLogLevelString           = "LogLevelInfo"
	DefaultLogOutputFormatString    = "console"
	DefaultLogConsoleSeparator      = "	"
	DefaultHideSensitiveData        = true
	DefaultAuthTimeout              = 30 // seconds
	DefaultCustomTimeout            = 30 // seconds
	DefaultTokenRefreshBufferPeriod = 10 // seconds
	DefaultMandatoryRequestDelay    = 250
	DefaultSearchConcurrency        = 5
	DefaultSearchBatchSize          = 50
	DefaultDashboardCacheTTL        = 300 // seconds
	DefaultDashboardCacheSize       = 32
	DefaultMaxRedirects             = 5

	MinCustomTimeout         = 15
	MaxCustomTimeout         = 30
	MaxMandatoryRequestDelay = 5000
	MaxSearchConcurrency     = 20
)

// Config holds every tunable of the toolkit. Durations are stored as integer seconds or
// milliseconds, mirroring the field naming of the Jamf Pro SDK config container so the
// same file can be shared.
type Config struct {
	// Jamf Pro authentication
	ServerURL          string `json:"server_url"`
	ClientID           string `json:"client_id"`
	ClientSecret       string `json:"client_secret"`
	PersistCredentials bool   `json:"persist_credentials"`

	// Logging
	LogLevel            string `json:"log_level"`
	LogOutputFormat     string `json:"log_output_format"`
	LogConsoleSeparator string `json:"log_console_separator"`
	HideSensitiveData   bool   `json:"hide_sensitive_data"`

	// HTTP
	AuthTimeout              int    `json:"auth_timeout_seconds"`
	CustomTimeout            int    `json:"custom_timeout_seconds"`
	TokenRefreshBufferPeriod int    `json:"token_refresh_buffer_period_seconds"`
	DisableCookieJar         bool   `json:"disable_cookie_jar"`
	FollowRedirects          bool   `json:"follow_redirects"`
	MaxRedirects             int    `json:"max_redirects"`
	ProxyURL                 string `json:"proxy_url"`

	// Bulk operations
	MandatoryRequestDelay  int  `json:"mandatory_request_delay_milliseconds"`
	DisableThrottleBackoff bool `json:"disable_throttle_backoff"`

	// Inventory search and dashboards
	SearchConcurrency  int `json:"search_concurrency"`
	SearchBatchSize    int `json:"search_batch_size"`
	DashboardCacheTTL  int `json:"dashboard_cache_ttl_seconds"`
	DashboardCacheSize int `json:"dashboard_cache_size"`
}

// Default returns a Config populated with the default values.
func Default() *Config {
	cfg := &Config{HideSensitiveData: DefaultHideSensitiveData}
	SetDefaultValues(cfg)
	return cfg
}

// LoadConfigFromFile loads configuration settings from a JSON file. Fields missing from
// the file take their default values.
func LoadConfigFromFile(filepath string) (*Config, error) {
	absPath, err := validateFilePath(filepath)
	if err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	byteValue, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("could not read file: %w", err)
	}

	cfg := &Config{HideSensitiveData: DefaultHideSensitiveData}
	if err := json.Unmarshal(byteValue, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal JSON: %w", err)
	}

	SetDefaultValues(cfg)
	return cfg, nil
}

// SetDefaultValues fills every unset field with its default.
func SetDefaultValues(cfg *Config) {
	setDefaultString(&cfg.LogLevel, DefaultLogLevelString)
	setDefaultString(&cfg.LogOutputFormat, DefaultLogOutputFormatString)
	setDefaultString(&cfg.LogConsoleSeparator, DefaultLogConsoleSeparator)
	setDefaultInt(&cfg.AuthTimeout, DefaultAuthTimeout)
	setDefaultInt(&cfg.CustomTimeout, DefaultCustomTimeout)
	setDefaultInt(&cfg.MandatoryRequestDelay, DefaultMandatoryRequestDelay)
	setDefaultInt(&cfg.SearchConcurrency, DefaultSearchConcurrency)
	setDefaultInt(&cfg.SearchBatchSize, DefaultSearchBatchSize)
	setDefaultInt(&cfg.DashboardCacheTTL, DefaultDashboardCacheTTL)
	setDefaultInt(&cfg.DashboardCacheSize, DefaultDashboardCacheSize)
	setDefaultInt(&cfg.MaxRedirects, DefaultMaxRedirects)
	setDefaultInt(&cfg.TokenRefreshBufferPeriod, DefaultTokenRefreshBufferPeriod)
}

// Validate checks the configuration for values the toolkit cannot work with.
func (c *Config) Validate() error {
	if c.ServerURL != "" {
		if err := ValidateServerURL(c.ServerURL); err != nil {
			return fmt.Errorf("invalid server_url: %w", err)
		}
	}

	if !slices.Contains(logger.ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.LogOutputFormat != logger.LogOutputJSON && c.LogOutputFormat != logger.LogOutputConsole {
		return fmt.Errorf("invalid log output format: %s", c.LogOutputFormat)
	}

	if c.AuthTimeout < 1 {
		return errors.New("auth timeout cannot be less than 1 second")
	}

	if c.CustomTimeout < MinCustomTimeout || c.CustomTimeout > MaxCustomTimeout {
		return fmt.Errorf("custom timeout must be between %d and %d seconds", MinCustomTimeout, MaxCustomTimeout)
	}

	if c.TokenRefreshBufferPeriod < 0 {
		return errors.New("refresh buffer period cannot be less than 0 seconds")
	}

	if c.MandatoryRequestDelay < 0 || c.MandatoryRequestDelay > MaxMandatoryRequestDelay {
		return fmt.Errorf("mandatory request delay must be between 0 and %d milliseconds", MaxMandatoryRequestDelay)
	}

	if c.SearchConcurrency < 1 || c.SearchConcurrency > MaxSearchConcurrency {
		return fmt.Errorf("search concurrency must be between 1 and %d", MaxSearchConcurrency)
	}

	if c.SearchBatchSize < 1 {
		return errors.New("search batch size cannot be less than 1")
	}

	if c.DashboardCacheTTL < 1 {
		return errors.New("dashboard cache ttl cannot be less than 1 second")
	}

	if c.DashboardCacheSize < 1 {
		return errors.New("dashboard cache size cannot be less than 1")
	}

	if c.FollowRedirects && c.MaxRedirects < 1 {
		return errors.New("max redirects cannot be less than 1")
	}

	if c.ProxyURL != "" {
		if _, err := url.Parse(c.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy url: %w", err)
		}
	}

	return nil
}

// ValidateServerURL checks that rawURL is an absolute http(s) URL with a host.
func ValidateServerURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("server URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}

// NormalizeServerURL trims whitespace and trailing slashes so endpoint paths can be appended.
func NormalizeServerURL(rawURL string) string {
	return strings.TrimRight(strings.TrimSpace(rawURL), "/")
}

// AuthTimeoutDuration returns the token exchange timeout.
func (c *Config) AuthTimeoutDuration() time.Duration {
	return time.Duration(c.AuthTimeout) * time.Second
}

// CustomTimeoutDuration returns the per request timeout for device operations.
func (c *Config) CustomTimeoutDuration() time.Duration {
	return time.Duration(c.CustomTimeout) * time.Second
}

// TokenRefreshBufferDuration returns the token validity safety margin.
func (c *Config) TokenRefreshBufferDuration() time.Duration {
	return time.Duration(c.TokenRefreshBufferPeriod) * time.Second
}

// MandatoryRequestDelayDuration returns the pause between bulk items.
func (c *Config) MandatoryRequestDelayDuration() time.Duration {
	return time.Duration(c.MandatoryRequestDelay) * time.Millisecond
}

// DashboardCacheTTLDuration returns how long dashboard aggregates stay cached.
func (c *Config) DashboardCacheTTLDuration() time.Duration {
	return time.Duration(c.DashboardCacheTTL) * time.Second
}

func setDefaultString(field *string, defaultValue string) {
	if *field == "" {
		*field = defaultValue
	}
}

func setDefaultInt(field *int, defaultValue int) {
	if *field == 0 {
		*field = defaultValue
	}
}
