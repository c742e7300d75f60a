// Package credentialstore persists the Jamf Pro API client credentials between runs. The
// non-secret fields live in a JSON preferences file and the client secret in the OS
// credential store.
package credentialstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	appConfigDir        = "jamf-fleetops"
	preferencesFileName = "preferences.json"
)

// Preferences are the non-secret connection settings.
type Preferences struct {
	ServerURL string `json:"server_url"`
	ClientID  string `json:"client_id"`
	Persist   bool   `json:"persist"`
}

// DefaultPreferencesPath returns preferences.json under the user configuration directory.
func DefaultPreferencesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, appConfigDir, preferencesFileName), nil
}

// LoadPreferences reads the preferences file. A missing file yields empty preferences.
func LoadPreferences(path string) (Preferences, error) {
	var prefs Preferences

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("failed to read preferences %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}
	return prefs, nil
}

// SavePreferences writes the preferences through a temporary file and a rename so a
// concurrent reader never sees a partial file.
func SavePreferences(path string, prefs Preferences) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		if removeErr := os.Remove(tempFile); removeErr != nil {
			return fmt.Errorf(
				"failed to rename temp file: %v; additionally failed to remove temp file: %w",
				err,
				removeErr,
			)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
