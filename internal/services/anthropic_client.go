package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is the model used when none is configured.
const DefaultAnthropicModel = string(anthropic.ModelClaudeSonnet4_5)

// anthropicMaxTokens bounds a single response. A proposed fix carries the whole file.
const anthropicMaxTokens = 16384

// AnthropicClient implements the ModelClient interface for Anthropic's Messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	client     *anthropic.Client
	httpClient *http.Client
}

// NewAnthropicClient creates a new Anthropic client with lazy initialization.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicClient{
		apiKey: apiKey,
		model:  model,
	}
}

// GetProviderName returns the provider name for this client.
func (c *AnthropicClient) GetProviderName() string {
	return "anthropic"
}

// IsConfigured returns true if the client has a valid API key.
func (c *AnthropicClient) IsConfigured() bool {
	return c.apiKey != ""
}

// SetHTTPClient sets the HTTP client used for requests.
func (c *AnthropicClient) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
	c.client = nil
}

func (c *AnthropicClient) initializeClientIfNeeded() error {
	if c.client != nil {
		return nil
	}

	if c.apiKey == "" {
		return fmt.Errorf("anthropic API key not configured")
	}

	options := []option.RequestOption{
		option.WithAPIKey(c.apiKey),
		option.WithMaxRetries(0),
	}
	if c.httpClient != nil {
		options = append(options, option.WithHTTPClient(c.httpClient))
	}

	client := anthropic.NewClient(options...)
	c.client = &client

	logger.Debug("Anthropic client initialized", "provider", "anthropic", "model", c.model)
	return nil
}

// Generate sends the history and tool declarations to Anthropic.
func (c *AnthropicClient) Generate(ctx context.Context, history []reviewtypes.Turn, tools []reviewtypes.ToolDeclaration) (reviewtypes.ModelResponse, error) {
	if err := c.initializeClientIfNeeded(); err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  convertHistoryToAnthropic(history),
	}
	if len(tools) > 0 {
		params.Tools = convertToolsToAnthropic(tools)
	}

	logger.ModelRequest("anthropic", c.model, len(params.Messages))
	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("Anthropic request failed", "error", err)
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	return processAnthropicResponse(message)
}

func convertHistoryToAnthropic(history []reviewtypes.Turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history))

	for _, turn := range history {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			switch {
			case p.ToolCall != nil:
				blocks = append(blocks, anthropic.NewToolUseBlock(p.ToolCall.ID, p.ToolCall.Args, p.ToolCall.Name))
			case p.ToolResult != nil:
				blocks = append(blocks, anthropic.NewToolResultBlock(p.ToolResult.ID, p.ToolResult.Result, false))
			default:
				blocks = append(blocks, anthropic.NewTextBlock(p.Text))
			}
		}

		if turn.Role == reviewtypes.RoleModel {
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	return messages
}

func convertToolsToAnthropic(tools []reviewtypes.ToolDeclaration) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		schema := tool.JSONSchema()
		params = append(params, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema["properties"],
					Required:   tool.RequiredNames(),
				},
			},
		})
	}
	return params
}

func processAnthropicResponse(message *anthropic.Message) (reviewtypes.ModelResponse, error) {
	if message == nil {
		return nil, fmt.Errorf("anthropic returned no message")
	}

	var text strings.Builder
	var calls []anthropic.ToolUseBlock
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			calls = append(calls, b)
		}
	}

	if len(calls) > 0 {
		first := calls[0]
		var args map[string]any
		if err := json.Unmarshal(first.Input, &args); err != nil {
			return nil, &reviewtypes.ValidationError{
				Tool:    first.Name,
				Message: "input is not a JSON object",
				Err:     err,
			}
		}
		return reviewtypes.ToolCallResponse{
			Call: reviewtypes.ToolCall{
				ID:   first.ID,
				Name: first.Name,
				Args: args,
			},
			Text:    text.String(),
			Dropped: len(calls) - 1,
		}, nil
	}

	return reviewtypes.TextResponse{Text: text.String()}, nil
}
