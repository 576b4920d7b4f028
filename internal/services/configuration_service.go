package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration keys understood by viper.
const (
	KeyProvider       = "provider"
	KeyModel          = "model"
	KeyAPIKey         = "api_key"
	KeyMaxToolTurns   = "max_tool_turns"
	KeyRequestTimeout = "request_timeout"
	KeyDiffTool       = "diff_tool"
)

// Defaults applied when nothing else sets a value.
const (
	DefaultProvider       = "gemini"
	DefaultMaxToolTurns   = 8
	DefaultRequestTimeout = 120 * time.Second
)

// providerEnvKeys lists the conventional environment variables holding each provider's key.
var providerEnvKeys = map[string][]string{
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// Settings is the resolved, read-only configuration of one review session.
type Settings struct {
	Provider       string
	Model          string
	MaxToolTurns   int
	RequestTimeout time.Duration
	DiffTool       string
}

// ConfigurationService resolves settings and the model credential from flags, the
// environment, .env files, the config file and the OS keyring.
type ConfigurationService struct {
	initialized bool
	v           *viper.Viper
	configDir   string
	workDir     string
	keyring     *KeyringService
	lookupEnv   func(string) (string, bool)
}

// NewConfigurationService creates a ConfigurationService reading from v. configDir holds
// config.yaml and an optional .env; keyring may be nil.
func NewConfigurationService(v *viper.Viper, configDir string, keyring *KeyringService) *ConfigurationService {
	return &ConfigurationService{
		v:         v,
		configDir: configDir,
		keyring:   keyring,
		lookupEnv: os.LookupEnv,
	}
}

// Name returns the service name "configuration" for registration.
func (c *ConfigurationService) Name() string {
	return "configuration"
}

// Initialize registers defaults and reads the optional config file.
func (c *ConfigurationService) Initialize() error {
	if c.initialized {
		return nil
	}

	c.v.SetDefault(KeyProvider, DefaultProvider)
	c.v.SetDefault(KeyMaxToolTurns, DefaultMaxToolTurns)
	c.v.SetDefault(KeyRequestTimeout, DefaultRequestTimeout)
	c.v.SetEnvPrefix("AIREVIEWER")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if c.configDir != "" {
		c.v.SetConfigName("config")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(c.configDir)
		if err := c.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			logger.Debug("Config file loaded", "path", c.v.ConfigFileUsed())
		}
	}

	if c.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		c.workDir = wd
	}

	c.initialized = true
	return nil
}

// Settings returns the resolved session settings.
func (c *ConfigurationService) Settings() (Settings, error) {
	if !c.initialized {
		return Settings{}, fmt.Errorf("configuration service not initialized")
	}

	s := Settings{
		Provider:       strings.ToLower(strings.TrimSpace(c.v.GetString(KeyProvider))),
		Model:          c.v.GetString(KeyModel),
		MaxToolTurns:   c.v.GetInt(KeyMaxToolTurns),
		RequestTimeout: c.v.GetDuration(KeyRequestTimeout),
		DiffTool:       c.v.GetString(KeyDiffTool),
	}

	if _, ok := providerEnvKeys[s.Provider]; !ok {
		return Settings{}, &reviewtypes.ConfigError{
			Key:     KeyProvider,
			Message: fmt.Sprintf("unsupported provider %q (supported: %s)", s.Provider, strings.Join(SupportedProviders, ", ")),
		}
	}
	if s.MaxToolTurns <= 0 {
		return Settings{}, &reviewtypes.ConfigError{
			Key:     KeyMaxToolTurns,
			Message: fmt.Sprintf("must be positive, got %d", s.MaxToolTurns),
		}
	}
	if s.RequestTimeout < 0 {
		return Settings{}, &reviewtypes.ConfigError{
			Key:     KeyRequestTimeout,
			Message: fmt.Sprintf("must not be negative, got %s", s.RequestTimeout),
		}
	}

	return s, nil
}

// Credential implements reviewtypes.CredentialSource. It is resolved afresh on every
// call, in order: AIREVIEWER_API_KEY, the provider's conventional env vars, the local
// .env, the config .env, the api_key setting, the OS keyring.
func (c *ConfigurationService) Credential() (string, error) {
	settings, err := c.Settings()
	if err != nil {
		return "", err
	}

	names := append([]string{"AIREVIEWER_API_KEY"}, providerEnvKeys[settings.Provider]...)

	for _, name := range names {
		if value, ok := c.lookupEnv(name); ok && strings.TrimSpace(value) != "" {
			logger.Debug("Credential resolved", "source", "env", "name", name)
			return value, nil
		}
	}

	for _, envPath := range c.dotEnvPaths() {
		envMap, err := loadDotEnvFile(envPath)
		if err != nil {
			return "", &reviewtypes.ConfigError{Key: KeyAPIKey, Message: "cannot read .env", Err: err}
		}
		for _, name := range names {
			if value := envMap[name]; strings.TrimSpace(value) != "" {
				logger.Debug("Credential resolved", "source", envPath, "name", name)
				return value, nil
			}
		}
	}

	if value := c.v.GetString(KeyAPIKey); strings.TrimSpace(value) != "" {
		logger.Debug("Credential resolved", "source", "config")
		return value, nil
	}

	if c.keyring != nil {
		value, err := c.keyring.GetAPIKey(settings.Provider)
		switch {
		case err == nil && value != "":
			logger.Debug("Credential resolved", "source", "keyring", "provider", settings.Provider)
			return value, nil
		case err != nil && !errors.Is(err, ErrCredentialNotFound):
			logger.Warn("Keyring lookup failed", "provider", settings.Provider, "error", err)
		}
	}

	return "", &reviewtypes.ConfigError{
		Key: KeyAPIKey,
		Message: fmt.Sprintf("API key missing for provider %s; set %s or run 'aireviewer key set'",
			settings.Provider, strings.Join(names, " or ")),
	}
}

// dotEnvPaths returns the .env files to consult, highest priority first.
func (c *ConfigurationService) dotEnvPaths() []string {
	var paths []string
	if c.workDir != "" {
		paths = append(paths, filepath.Join(c.workDir, ".env"))
	}
	if c.configDir != "" {
		paths = append(paths, filepath.Join(c.configDir, ".env"))
	}
	return paths
}

// loadDotEnvFile parses a .env file. A missing file yields an empty map.
func loadDotEnvFile(envPath string) (map[string]string, error) {
	data, err := os.ReadFile(envPath)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read .env file %s: %w", envPath, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse .env file %s: %w", envPath, err)
	}
	return envMap, nil
}

// DefaultConfigDir returns AIREVIEWER_CONFIG_DIR or <user config dir>/aireviewer.
func DefaultConfigDir() (string, error) {
	if dir := os.Getenv("AIREVIEWER_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "aireviewer"), nil
}

// GetGlobalConfigurationService returns the registered ConfigurationService.
func GetGlobalConfigurationService() (*ConfigurationService, error) {
	return getTypedService[*ConfigurationService]("configuration")
}
