package services

import (
	"fmt"
	"net/http"
	"strings"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"
)

// SupportedProviders lists the providers the factory can build clients for.
var SupportedProviders = []string{"gemini", "openai", "anthropic"}

// ClientFactoryService creates provider clients. Clients are built per session and never
// cached, so a changed credential takes effect on the next review.
type ClientFactoryService struct {
	initialized bool
	transport   *HTTPTransportService
}

// NewClientFactoryService creates a new ClientFactoryService instance. transport may be
// nil, in which case clients use the SDK default HTTP client.
func NewClientFactoryService(transport *HTTPTransportService) *ClientFactoryService {
	return &ClientFactoryService{
		transport: transport,
	}
}

// Name returns the service name "client_factory" for registration.
func (f *ClientFactoryService) Name() string {
	return "client_factory"
}

// Initialize sets up the ClientFactoryService for operation.
func (f *ClientFactoryService) Initialize() error {
	logger.ServiceOperation("client_factory", "initialize", "starting")
	f.initialized = true
	logger.ServiceOperation("client_factory", "initialize", "completed")
	return nil
}

// httpClientSetter is implemented by every provider client.
type httpClientSetter interface {
	SetHTTPClient(*http.Client)
}

// GetClientForProvider returns a model client for the provider, API key and model.
// An empty model selects the provider default.
func (f *ClientFactoryService) GetClientForProvider(provider, apiKey, model string) (reviewtypes.ModelClient, error) {
	if !f.initialized {
		return nil, fmt.Errorf("client factory service not initialized")
	}

	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	if apiKey == "" {
		return nil, fmt.Errorf("API key cannot be empty for provider '%s'", provider)
	}

	var client reviewtypes.ModelClient
	switch provider {
	case "gemini":
		client = NewGeminiClient(apiKey, model)
	case "openai":
		client = NewOpenAIClient(apiKey, model)
	case "anthropic":
		client = NewAnthropicClient(apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported provider '%s'. Supported providers: %s", provider, strings.Join(SupportedProviders, ", "))
	}

	if f.transport != nil {
		if setter, ok := client.(httpClientSetter); ok {
			setter.SetHTTPClient(f.transport.Client())
		}
	}

	logger.Debug("Created provider client", "provider", provider, "model", model)
	return client, nil
}

// GetGlobalClientFactoryService returns the registered ClientFactoryService.
func GetGlobalClientFactoryService() (*ClientFactoryService, error) {
	return getTypedService[*ClientFactoryService]("client_factory")
}
