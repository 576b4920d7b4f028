package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = openai.ChatModelGPT4o

// OpenAIClient implements the ModelClient interface for OpenAI's chat completions API.
type OpenAIClient struct {
	apiKey     string
	model      string
	client     *openai.Client
	httpClient *http.Client
}

// NewOpenAIClient creates a new OpenAI client with lazy initialization.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{
		apiKey: apiKey,
		model:  model,
	}
}

// GetProviderName returns the provider name for this client.
func (c *OpenAIClient) GetProviderName() string {
	return "openai"
}

// IsConfigured returns true if the client has a valid API key.
func (c *OpenAIClient) IsConfigured() bool {
	return c.apiKey != ""
}

// SetHTTPClient sets the HTTP client used for requests.
func (c *OpenAIClient) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
	c.client = nil
}

func (c *OpenAIClient) initializeClientIfNeeded() error {
	if c.client != nil {
		return nil
	}

	if c.apiKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}

	// The session never retries a failed model call.
	options := []option.RequestOption{
		option.WithAPIKey(c.apiKey),
		option.WithMaxRetries(0),
	}
	if c.httpClient != nil {
		options = append(options, option.WithHTTPClient(c.httpClient))
	}

	client := openai.NewClient(options...)
	c.client = &client

	logger.Debug("OpenAI client initialized", "provider", "openai", "model", c.model)
	return nil
}

// Generate sends the history and tool declarations to OpenAI.
func (c *OpenAIClient) Generate(ctx context.Context, history []reviewtypes.Turn, tools []reviewtypes.ToolDeclaration) (reviewtypes.ModelResponse, error) {
	if err := c.initializeClientIfNeeded(); err != nil {
		return nil, err
	}

	messages, err := convertHistoryToOpenAI(history)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	}
	if len(tools) > 0 {
		params.Tools = convertToolsToOpenAI(tools)
	}

	logger.ModelRequest("openai", c.model, len(messages))
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("OpenAI request failed", "error", err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	return processOpenAIResponse(completion)
}

func convertHistoryToOpenAI(history []reviewtypes.Turn) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))

	for _, turn := range history {
		for _, p := range turn.Parts {
			switch {
			case p.ToolCall != nil:
				args, err := json.Marshal(p.ToolCall.Args)
				if err != nil {
					return nil, fmt.Errorf("failed to encode arguments of %s: %w", p.ToolCall.Name, err)
				}
				messages = append(messages, openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
							ID: p.ToolCall.ID,
							Function: openai.ChatCompletionMessageToolCallFunctionParam{
								Name:      p.ToolCall.Name,
								Arguments: string(args),
							},
						}},
					},
				})
			case p.ToolResult != nil:
				messages = append(messages, openai.ToolMessage(p.ToolResult.Result, p.ToolResult.ID))
			case turn.Role == reviewtypes.RoleModel:
				messages = append(messages, openai.AssistantMessage(p.Text))
			default:
				messages = append(messages, openai.UserMessage(p.Text))
			}
		}
	}

	return messages, nil
}

func convertToolsToOpenAI(tools []reviewtypes.ToolDeclaration) []openai.ChatCompletionToolParam {
	params := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		params = append(params, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.JSONSchema()),
			},
		})
	}
	return params
}

func processOpenAIResponse(completion *openai.ChatCompletion) (reviewtypes.ModelResponse, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	message := completion.Choices[0].Message
	if len(message.ToolCalls) > 0 {
		first := message.ToolCalls[0]
		var args map[string]any
		if err := json.Unmarshal([]byte(first.Function.Arguments), &args); err != nil {
			return nil, &reviewtypes.ValidationError{
				Tool:    first.Function.Name,
				Message: "arguments are not a JSON object",
				Err:     err,
			}
		}
		return reviewtypes.ToolCallResponse{
			Call: reviewtypes.ToolCall{
				ID:   first.ID,
				Name: first.Function.Name,
				Args: args,
			},
			Text:    message.Content,
			Dropped: len(message.ToolCalls) - 1,
		}, nil
	}

	return reviewtypes.TextResponse{Text: message.Content}, nil
}
