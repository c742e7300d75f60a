package credentialstore

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name client secrets are stored under.
const KeyringService = "com.deploymenttheory.jamf-fleetops"

// ErrSecretNotFound is returned when no secret is stored for an account.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore keeps one secret per account.
type SecretStore interface {
	Get(account string) (string, error)
	Set(account, secret string) error
	Delete(account string) error
}

// KeyringSecretStore stores secrets in the OS credential store (Keychain, Secret Service or
// Windows Credential Manager).
type KeyringSecretStore struct {
	Service string
}

// NewKeyringSecretStore returns a store under KeyringService.
func NewKeyringSecretStore() *KeyringSecretStore {
	return &KeyringSecretStore{Service: KeyringService}
}

func (k *KeyringSecretStore) Get(account string) (string, error) {
	secret, err := keyring.Get(k.Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	return secret, err
}

func (k *KeyringSecretStore) Set(account, secret string) error {
	return keyring.Set(k.Service, account, secret)
}

func (k *KeyringSecretStore) Delete(account string) error {
	err := keyring.Delete(k.Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrSecretNotFound
	}
	return err
}

// MemorySecretStore keeps secrets in process memory.
type MemorySecretStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

// NewMemorySecretStore returns an empty MemorySecretStore.
func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{secrets: make(map[string]string)}
}

func (m *MemorySecretStore) Get(account string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	secret, ok := m.secrets[account]
	if !ok {
		return "", ErrSecretNotFound
	}
	return secret, nil
}

func (m *MemorySecretStore) Set(account, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[account] = secret
	return nil
}

func (m *MemorySecretStore) Delete(account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.secrets[account]; !ok {
		return ErrSecretNotFound
	}
	delete(m.secrets, account)
	return nil
}
