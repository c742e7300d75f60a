// config/env.go
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names understood by LoadConfigFromEnv.
const (
	EnvServerURL          = "JAMF_SERVER_URL"
	EnvClientID           = "JAMF_CLIENT_ID"
	EnvClientSecret       = "JAMF_CLIENT_SECRET"
	EnvPersistCredentials = "JAMF_PERSIST_CREDENTIALS"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogOutputFormat    = "LOG_OUTPUT_FORMAT"
	EnvHideSensitiveData  = "HIDE_SENSITIVE_DATA"
	EnvCustomTimeout      = "CUSTOM_TIMEOUT_SECONDS"
	EnvTokenBuffer        = "TOKEN_REFRESH_BUFFER_PERIOD_SECONDS"
	EnvRequestDelay       = "MANDATORY_REQUEST_DELAY_MILLISECONDS"
	EnvSearchConcurrency  = "SEARCH_CONCURRENCY"
	EnvProxyURL           = "PROXY_URL"
)

// LoadDotEnv loads the given .env files (default ".env") into the process environment.
// Missing files are ignored; variables already set are never overwritten.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// LoadConfigFromEnv overlays environment variables onto base (which may be nil) and
// fills the remaining gaps with defaults. Priority: environment > base > default.
func LoadConfigFromEnv(base *Config) (*Config, error) {
	cfg := &Config{HideSensitiveData: DefaultHideSensitiveData}
	if base != nil {
		*cfg = *base
	}

	cfg.ServerURL = getEnvOrDefault(EnvServerURL, cfg.ServerURL)
	cfg.ClientID = getEnvOrDefault(EnvClientID, cfg.ClientID)
	cfg.ClientSecret = getEnvOrDefault(EnvClientSecret, cfg.ClientSecret)
	cfg.LogLevel = getEnvOrDefault(EnvLogLevel, cfg.LogLevel)
	cfg.LogOutputFormat = getEnvOrDefault(EnvLogOutputFormat, cfg.LogOutputFormat)
	cfg.ProxyURL = getEnvOrDefault(EnvProxyURL, cfg.ProxyURL)

	var err error
	if cfg.PersistCredentials, err = getEnvAsBool(EnvPersistCredentials, cfg.PersistCredentials); err != nil {
		return nil, err
	}
	if cfg.HideSensitiveData, err = getEnvAsBool(EnvHideSensitiveData, cfg.HideSensitiveData); err != nil {
		return nil, err
	}
	if cfg.CustomTimeout, err = getEnvAsInt(EnvCustomTimeout, cfg.CustomTimeout); err != nil {
		return nil, err
	}
	if cfg.TokenRefreshBufferPeriod, err = getEnvAsInt(EnvTokenBuffer, cfg.TokenRefreshBufferPeriod); err != nil {
		return nil, err
	}
	if cfg.MandatoryRequestDelay, err = getEnvAsInt(EnvRequestDelay, cfg.MandatoryRequestDelay); err != nil {
		return nil, err
	}
	if cfg.SearchConcurrency, err = getEnvAsInt(EnvSearchConcurrency, cfg.SearchConcurrency); err != nil {
		return nil, err
	}

	SetDefaultValues(cfg)
	return cfg, nil
}

func getEnvOrDefault(envKey string, defaultValue string) string {
	if value, exists := os.LookupEnv(envKey); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(envKey string, defaultValue int) (int, error) {
	value := getEnvOrDefault(envKey, "")
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, &EnvError{Key: envKey, Value: value, Err: err}
	}
	return parsed, nil
}

func getEnvAsBool(envKey string, defaultValue bool) (bool, error) {
	value := getEnvOrDefault(envKey, "")
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, &EnvError{Key: envKey, Value: value, Err: err}
	}
	return parsed, nil
}

// EnvError reports an environment variable that could not be parsed.
type EnvError struct {
	Key   string
	Value string
	Err   error
}

func (e *EnvError) Error() string {
	return "invalid value " + strconv.Quote(e.Value) + " for " + e.Key + ": " + e.Err.Error()
}

func (e *EnvError) Unwrap() error {
	return e.Err
}
