package credentialstore

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-jamfpro-fleetops/authenticationhandler"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
)

// Store combines the preferences file and a SecretStore.
type Store struct {
	path    string
	secrets SecretStore
	log     logger.Logger
}

var _ authenticationhandler.CredentialPersister = (*Store)(nil)

// NewStore creates a Store writing preferences to path.
func NewStore(path string, secrets SecretStore, log logger.Logger) *Store {
	return &Store{path: path, secrets: secrets, log: log}
}

// Save writes the server URL, client ID and persist flag to the preferences file. The
// secret is written to the SecretStore only when persistence is requested, and removed
// otherwise.
func (s *Store) Save(creds authenticationhandler.Credentials) error {
	prefs := Preferences{
		ServerURL: creds.ServerURL,
		ClientID:  creds.ClientID,
		Persist:   creds.Persist,
	}
	if err := SavePreferences(s.path, prefs); err != nil {
		return err
	}

	if creds.ClientID == "" {
		return nil
	}

	if !creds.Persist {
		if err := s.secrets.Delete(creds.ClientID); err != nil && !errors.Is(err, ErrSecretNotFound) {
			return fmt.Errorf("failed to remove stored secret: %w", err)
		}
		return nil
	}

	if err := s.secrets.Set(creds.ClientID, creds.ClientSecret); err != nil {
		return fmt.Errorf("failed to store client secret: %w", err)
	}
	s.log.Debug("Client secret stored", zap.String("client_id", creds.ClientID))
	return nil
}

// Load returns the stored credentials. The secret is looked up only when the preferences
// ask for persistence; a missing secret leaves ClientSecret empty.
func (s *Store) Load() (authenticationhandler.Credentials, error) {
	prefs, err := LoadPreferences(s.path)
	if err != nil {
		return authenticationhandler.Credentials{}, err
	}

	creds := authenticationhandler.Credentials{
		ServerURL: prefs.ServerURL,
		ClientID:  prefs.ClientID,
		Persist:   prefs.Persist,
	}
	if !prefs.Persist || prefs.ClientID == "" {
		return creds, nil
	}

	secret, err := s.secrets.Get(prefs.ClientID)
	switch {
	case errors.Is(err, ErrSecretNotFound):
		s.log.Info("No stored secret for client", zap.String("client_id", prefs.ClientID))
	case err != nil:
		return creds, fmt.Errorf("failed to read stored secret: %w", err)
	default:
		creds.ClientSecret = secret
	}
	return creds, nil
}

// Forget removes the secret for clientID and turns persistence off. The server URL and
// client ID stay in the preferences file.
func (s *Store) Forget(clientID string) error {
	if err := s.secrets.Delete(clientID); err != nil && !errors.Is(err, ErrSecretNotFound) {
		return fmt.Errorf("failed to remove stored secret: %w", err)
	}

	prefs, err := LoadPreferences(s.path)
	if err != nil {
		return err
	}
	if !prefs.Persist {
		return nil
	}
	prefs.Persist = false
	return SavePreferences(s.path, prefs)
}
