package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-jamfpro-fleetops/authenticationhandler"
	"github.com/deploymenttheory/go-jamfpro-fleetops/config"
	"github.com/deploymenttheory/go-jamfpro-fleetops/credentialstore"
	"github.com/deploymenttheory/go-jamfpro-fleetops/httpclient"
	"github.com/deploymenttheory/go-jamfpro-fleetops/jamfpro"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
)

// app is the wired object graph shared by the commands.
type app struct {
	cfg         *config.Config
	log         logger.Logger
	store       *credentialstore.Store
	coordinator *authenticationhandler.Coordinator
	jamf        *jamfpro.Client
}

// newApp loads the configuration and builds the clients. Priority for every setting:
// flag > environment > config file > stored preferences > default.
func newApp(opts *rootOptions) (*app, error) {
	if err := config.LoadDotEnv(opts.dotEnvFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", opts.dotEnvFile, err)
	}

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadConfigFromFile(opts.configPath); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	cfg, err := config.LoadConfigFromEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	if opts.serverURL != "" {
		cfg.ServerURL = opts.serverURL
	}
	if opts.clientID != "" {
		cfg.ClientID = opts.clientID
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	cfg.ServerURL = config.NormalizeServerURL(cfg.ServerURL)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.BuildLogger(logger.ParseLogLevelFromString(cfg.LogLevel), cfg.LogOutputFormat, cfg.LogConsoleSeparator)

	store, err := newCredentialStore(opts, log)
	if err != nil {
		return nil, err
	}
	stored, err := store.Load()
	if err != nil {
		log.Warn("Stored credentials unavailable", zap.Error(err))
		stored = authenticationhandler.Credentials{}
	}

	httpClient, err := httpclient.Build(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("building http client: %w", err)
	}

	authClient := authenticationhandler.NewAuthClient(
		httpclient.WithTimeout(httpClient, cfg.AuthTimeoutDuration()),
		log,
		cfg.HideSensitiveData,
		authenticationhandler.WithAuthTimeout(cfg.AuthTimeoutDuration()),
	)

	coordinator := authenticationhandler.NewCoordinator(authClient, log,
		authenticationhandler.WithRefreshBuffer(cfg.TokenRefreshBufferDuration()),
		authenticationhandler.WithPersister(store),
		authenticationhandler.WithStoredCredentials(stored),
	)
	coordinator.UpdateCredentials(mergeCredentials(cfg, stored))

	jamf := jamfpro.NewClient(httpClient, log,
		jamfpro.WithRequestTimeout(cfg.CustomTimeoutDuration()),
		jamfpro.WithHideSensitiveData(cfg.HideSensitiveData),
	)

	return &app{
		cfg:         cfg,
		log:         log,
		store:       store,
		coordinator: coordinator,
		jamf:        jamf,
	}, nil
}

func newCredentialStore(opts *rootOptions, log logger.Logger) (*credentialstore.Store, error) {
	path := opts.preferencesPath
	if path == "" {
		var err error
		if path, err = credentialstore.DefaultPreferencesPath(); err != nil {
			return nil, err
		}
	}

	secrets := opts.secrets
	if secrets == nil {
		secrets = credentialstore.NewKeyringSecretStore()
	}
	return credentialstore.NewStore(path, secrets, log), nil
}

// mergeCredentials prefers configured values over stored ones. The stored secret is only
// reused for the same server and client ID.
func mergeCredentials(cfg *config.Config, stored authenticationhandler.Credentials) authenticationhandler.Credentials {
	creds := stored
	if cfg.ServerURL != "" {
		creds.ServerURL = cfg.ServerURL
	}
	if cfg.ClientID != "" {
		creds.ClientID = cfg.ClientID
	}
	if creds.ServerURL != stored.ServerURL || creds.ClientID != stored.ClientID {
		creds.ClientSecret = ""
	}
	if cfg.ClientSecret != "" {
		creds.ClientSecret = cfg.ClientSecret
	}
	creds.Persist = stored.Persist || cfg.PersistCredentials
	return creds
}

// sync flushes the logger. Errors from syncing stderr are ignored.
func (a *app) sync() {
	_ = a.log.Sync()
}
