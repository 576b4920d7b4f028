package services

import (
	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"

	"github.com/spf13/viper"
)

// InitializeServices registers and initializes the services a review needs in the
// global registry. Services already registered (by tests) are kept.
func InitializeServices(v *viper.Viper, configDir string) error {
	registry := GetGlobalRegistry()

	keyring := NewKeyringService(configDir)
	if registry.HasService(keyring.Name()) {
		existing, err := GetGlobalKeyringService()
		if err != nil {
			return err
		}
		keyring = existing
	}

	transport := NewHTTPTransportService()
	if registry.HasService(transport.Name()) {
		existing, err := GetGlobalHTTPTransportService()
		if err != nil {
			return err
		}
		transport = existing
	}

	candidates := []reviewtypes.Service{
		keyring,
		transport,
		NewConfigurationService(v, configDir, keyring),
		NewClientFactoryService(transport),
		NewDiffService(),
		NewMarkdownService(),
		NewComparisonService(),
		NewTranscriptService(),
	}

	for _, service := range candidates {
		if registry.HasService(service.Name()) {
			continue
		}
		if err := registry.RegisterService(service); err != nil {
			return err
		}
	}

	if err := registry.InitializeAll(); err != nil {
		return err
	}

	logger.Debug("Services initialized", "config_dir", configDir, "count", len(registry.GetAllServices()))
	return nil
}
