package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient implements the ModelClient interface for the Google Gemini API.
// The underlying genai client is created lazily on the first request.
type GeminiClient struct {
	apiKey     string
	model      string
	client     *genai.Client
	httpClient *http.Client
}

// NewGeminiClient creates a new Gemini client with lazy initialization.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{
		apiKey: apiKey,
		model:  model,
	}
}

// GetProviderName returns the provider name for this client.
func (c *GeminiClient) GetProviderName() string {
	return "gemini"
}

// IsConfigured returns true if the client has a valid API key.
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

// SetHTTPClient sets the HTTP client used for requests.
func (c *GeminiClient) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
	// Force re-initialization with the new transport
	c.client = nil
}

func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) error {
	if c.client != nil {
		return nil
	}

	if c.apiKey == "" {
		return fmt.Errorf("gemini API key not configured")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.httpClient != nil {
		clientConfig.HTTPClient = c.httpClient
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Debug("Gemini client initialized", "provider", "gemini", "model", c.model)
	c.client = client
	return nil
}

// Generate sends the history and tool declarations to Gemini.
func (c *GeminiClient) Generate(ctx context.Context, history []reviewtypes.Turn, tools []reviewtypes.ToolDeclaration) (reviewtypes.ModelResponse, error) {
	if err := c.initializeClientIfNeeded(ctx); err != nil {
		return nil, err
	}

	contents := convertHistoryToGemini(history)
	config := &genai.GenerateContentConfig{}
	if len(tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: convertToolsToGemini(tools)}}
	}

	logger.ModelRequest("gemini", c.model, len(contents))
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		logger.Error("Gemini request failed", "error", err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	return processGeminiResponse(result)
}

// convertHistoryToGemini maps turns onto genai contents. Call ids are not sent back:
// the Gemini API matches function responses by name.
func convertHistoryToGemini(history []reviewtypes.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))

	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == reviewtypes.RoleModel {
			role = genai.RoleModel
		}

		parts := make([]*genai.Part, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			switch {
			case p.ToolCall != nil:
				parts = append(parts, genai.NewPartFromFunctionCall(p.ToolCall.Name, p.ToolCall.Args))
			case p.ToolResult != nil:
				parts = append(parts, genai.NewPartFromFunctionResponse(p.ToolResult.Name, map[string]any{
					"result": p.ToolResult.Result,
				}))
			default:
				parts = append(parts, genai.NewPartFromText(p.Text))
			}
		}

		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return contents
}

func convertToolsToGemini(tools []reviewtypes.ToolDeclaration) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		props := make(map[string]*genai.Schema, len(tool.Parameters))
		for _, p := range tool.Parameters {
			props[p.Name] = &genai.Schema{
				Type:        geminiType(p.Type),
				Description: p.Description,
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   tool.RequiredNames(),
			},
		})
	}
	return decls
}

func geminiType(t reviewtypes.ParameterType) genai.Type {
	return genai.Type(strings.ToUpper(string(t)))
}

// processGeminiResponse inspects the first candidate for a function call. Thought parts
// are skipped; the remaining text parts are concatenated.
func processGeminiResponse(result *genai.GenerateContentResponse) (reviewtypes.ModelResponse, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	// A candidate without content is a finished turn with nothing more to say.
	var parts []*genai.Part
	if content := result.Candidates[0].Content; content != nil {
		parts = content.Parts
	}

	var text strings.Builder
	var calls []*genai.FunctionCall
	for _, part := range parts {
		switch {
		case part.FunctionCall != nil:
			calls = append(calls, part.FunctionCall)
		case part.Thought:
			logger.Debug("Gemini thinking block skipped", "thinking_length", len(part.Text))
		case part.Text != "":
			text.WriteString(part.Text)
		}
	}

	if len(calls) > 0 {
		first := calls[0]
		return reviewtypes.ToolCallResponse{
			Call: reviewtypes.ToolCall{
				ID:   first.ID,
				Name: first.Name,
				Args: first.Args,
			},
			Text:    text.String(),
			Dropped: len(calls) - 1,
		}, nil
	}

	return reviewtypes.TextResponse{Text: text.String()}, nil
}
