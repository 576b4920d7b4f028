package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"aireviewer/internal/logger"

	"github.com/99designs/keyring"
)

const keyringServiceName = "aireviewer"

// ErrCredentialNotFound is returned when no credential is stored for a provider.
var ErrCredentialNotFound = errors.New("credential not found")

// KeyringOpener opens the keyring backend. Tests substitute an in-memory keyring.
type KeyringOpener func() (keyring.Keyring, error)

// KeyringService stores provider API keys in the OS keyring. The backend is opened on
// first use because some backends prompt for a password.
type KeyringService struct {
	initialized bool
	opener      KeyringOpener
	ring        keyring.Keyring
}

// NewKeyringService creates a KeyringService backed by the system keyring. Encrypted
// files under configDir are used when no native backend is available.
func NewKeyringService(configDir string) *KeyringService {
	return NewKeyringServiceWithOpener(func() (keyring.Keyring, error) {
		return keyring.Open(keyring.Config{
			ServiceName:      keyringServiceName,
			FileDir:          filepath.Join(configDir, "keyring"),
			FilePasswordFunc: keyring.TerminalPrompt,
		})
	})
}

// NewKeyringServiceWithOpener creates a KeyringService using opener for the backend.
func NewKeyringServiceWithOpener(opener KeyringOpener) *KeyringService {
	return &KeyringService{opener: opener}
}

// Name returns the service name "keyring" for registration.
func (s *KeyringService) Name() string {
	return "keyring"
}

// Initialize sets up the KeyringService for operation.
func (s *KeyringService) Initialize() error {
	s.initialized = true
	return nil
}

func (s *KeyringService) open() (keyring.Keyring, error) {
	if !s.initialized {
		return nil, fmt.Errorf("keyring service not initialized")
	}
	if s.ring != nil {
		return s.ring, nil
	}
	ring, err := s.opener()
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	s.ring = ring
	return ring, nil
}

// GetAPIKey returns the stored key for provider or ErrCredentialNotFound.
func (s *KeyringService) GetAPIKey(provider string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}
	ring, err := s.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(provider)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrCredentialNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s key from keyring: %w", provider, err)
	}
	return string(item.Data), nil
}

// StoreAPIKey saves apiKey for provider.
func (s *KeyringService) StoreAPIKey(provider, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("API key is empty")
	}
	if provider == "" {
		return errors.New("provider is required")
	}
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         provider,
		Data:        []byte(apiKey),
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by aireviewer",
	})
	if err != nil {
		return fmt.Errorf("failed to store %s key: %w", provider, err)
	}
	logger.Debug("Stored API key in keyring", "provider", provider)
	return nil
}

// DeleteAPIKey removes the key for provider. Deleting a missing key returns
// ErrCredentialNotFound.
func (s *KeyringService) DeleteAPIKey(provider string) error {
	if provider == "" {
		return errors.New("provider is required")
	}
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Remove(provider)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return ErrCredentialNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s key: %w", provider, err)
	}
	return nil
}

// GetGlobalKeyringService returns the registered KeyringService.
func GetGlobalKeyringService() (*KeyringService, error) {
	return getTypedService[*KeyringService]("keyring")
}
