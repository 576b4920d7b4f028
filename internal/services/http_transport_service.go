package services

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"aireviewer/internal/logger"
)

// HTTPTransportService builds the HTTP client shared by the provider clients. Every
// round trip is logged at debug level with sensitive headers masked.
type HTTPTransportService struct {
	initialized bool
	base        http.RoundTripper
	requests    atomic.Int64
}

// NewHTTPTransportService creates a new HTTPTransportService instance.
func NewHTTPTransportService() *HTTPTransportService {
	return &HTTPTransportService{
		base: http.DefaultTransport,
	}
}

// Name returns the service name "http-transport" for registration.
func (s *HTTPTransportService) Name() string {
	return "http-transport"
}

// Initialize sets up the HTTPTransportService for operation.
func (s *HTTPTransportService) Initialize() error {
	logger.ServiceOperation("http-transport", "initialize", "starting")
	s.requests.Store(0)
	s.initialized = true
	logger.ServiceOperation("http-transport", "initialize", "completed")
	return nil
}

// SetBase replaces the underlying round tripper (used by tests).
func (s *HTTPTransportService) SetBase(base http.RoundTripper) {
	s.base = base
}

// Client returns an HTTP client using the logging transport. The request timeout is
// enforced by the caller's context, not by the client.
func (s *HTTPTransportService) Client() *http.Client {
	if !s.initialized {
		logger.Error("HTTP transport service not initialized")
		return &http.Client{}
	}
	return &http.Client{Transport: &loggingTransport{base: s.base, service: s}}
}

// RequestCount returns the number of round trips attempted since initialization.
func (s *HTTPTransportService) RequestCount() int64 {
	return s.requests.Load()
}

// loggingTransport implements http.RoundTripper with debug logging.
type loggingTransport struct {
	base    http.RoundTripper
	service *HTTPTransportService
}

// RoundTrip implements http.RoundTripper.
func (lt *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	lt.service.requests.Add(1)
	start := time.Now()

	logger.Debug("HTTP request",
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"content_length", req.ContentLength,
		"headers", sanitizeHeaders(req.Header))

	resp, err := lt.base.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		logger.Debug("HTTP request failed", "host", req.URL.Host, "duration_ms", duration.Milliseconds(), "error", err)
		return resp, err
	}

	logger.Debug("HTTP response",
		"status", resp.StatusCode,
		"content_length", resp.ContentLength,
		"duration_ms", duration.Milliseconds())
	return resp, nil
}

// sanitizeHeaders masks credentials carried in request headers.
func sanitizeHeaders(headers http.Header) map[string][]string {
	sanitized := make(map[string][]string, len(headers))

	for name, values := range headers {
		lowerName := strings.ToLower(name)
		if strings.Contains(lowerName, "authorization") ||
			strings.Contains(lowerName, "api-key") ||
			strings.Contains(lowerName, "token") {
			if len(values) > 0 && len(values[0]) > 10 {
				sanitized[name] = []string{values[0][:10] + "***[MASKED]***"}
			} else {
				sanitized[name] = []string{"***[MASKED]***"}
			}
			continue
		}
		sanitized[name] = values
	}

	return sanitized
}

// GetGlobalHTTPTransportService returns the registered HTTPTransportService.
func GetGlobalHTTPTransportService() (*HTTPTransportService, error) {
	return getTypedService[*HTTPTransportService]("http-transport")
}
