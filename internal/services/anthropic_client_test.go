package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"aireviewer/pkg/reviewtypes"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAnthropicMessage(t *testing.T, content string) *anthropic.Message {
	t.Helper()
	body := `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","stop_reason":"end_turn",
		"usage":{"input_tokens":10,"output_tokens":5},"content":` + content + `}`
	var message anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(body), &message))
	return &message
}

func TestNewAnthropicClient(t *testing.T) {
	client := NewAnthropicClient("test-api-key", "")
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, DefaultAnthropicModel, client.model)
	assert.Nil(t, client.client)

	client = NewAnthropicClient("test-api-key", "claude-opus-4-1")
	assert.Equal(t, "claude-opus-4-1", client.model)
}

func TestAnthropicClient_GetProviderName(t *testing.T) {
	assert.Equal(t, "anthropic", NewAnthropicClient("k", "").GetProviderName())
}

func TestAnthropicClient_IsConfigured(t *testing.T) {
	assert.True(t, NewAnthropicClient("k", "").IsConfigured())
	assert.False(t, NewAnthropicClient("", "").IsConfigured())
}

func TestAnthropicClient_Generate_NotConfigured(t *testing.T) {
	_, err := NewAnthropicClient("", "").Generate(context.Background(), toolExchangeHistory(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic API key not configured")
}

func TestAnthropicClient_SetHTTPClient_ClearsExistingClient(t *testing.T) {
	client := NewAnthropicClient("k", "")
	require.NoError(t, client.initializeClientIfNeeded())
	require.NotNil(t, client.client)

	client.SetHTTPClient(&http.Client{})
	assert.Nil(t, client.client)
}

func TestAnthropicClient_ConvertHistory(t *testing.T) {
	messages := convertHistoryToAnthropic(toolExchangeHistory())
	require.Len(t, messages, 3)

	assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
	require.NotNil(t, messages[0].Content[0].OfText)
	assert.Equal(t, "Review this code", messages[0].Content[0].OfText.Text)

	assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)
	toolUse := messages[1].Content[0].OfToolUse
	require.NotNil(t, toolUse)
	assert.Equal(t, "call-1", toolUse.ID)
	assert.Equal(t, "propose_fix", toolUse.Name)

	assert.Equal(t, anthropic.MessageParamRoleUser, messages[2].Role)
	toolResult := messages[2].Content[0].OfToolResult
	require.NotNil(t, toolResult)
	assert.Equal(t, "call-1", toolResult.ToolUseID)
}

func TestAnthropicClient_ConvertTools(t *testing.T) {
	tools := convertToolsToAnthropic([]reviewtypes.ToolDeclaration{proposeFixDeclaration()})
	require.Len(t, tools, 1)

	tool := tools[0].OfTool
	require.NotNil(t, tool)
	assert.Equal(t, "propose_fix", tool.Name)
	assert.Equal(t, []string{"fixed_content", "explanation"}, tool.InputSchema.Required)
	props, ok := tool.InputSchema.Properties.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "fixed_content")
	assert.Contains(t, props, "explanation")
}

func TestAnthropicClient_ProcessResponse(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expected    reviewtypes.ModelResponse
		expectError string
		validation  bool
	}{
		{
			name:     "text blocks concatenated",
			content:  `[{"type":"text","text":"SUMMARY "},{"type":"text","text":"REPORT"}]`,
			expected: reviewtypes.TextResponse{Text: "SUMMARY REPORT"},
		},
		{
			name: "tool use with prose",
			content: `[{"type":"text","text":"Missing paren."},
				{"type":"tool_use","id":"toolu_1","name":"propose_fix","input":{"fixed_content":"print('x')","explanation":"closed paren"}}]`,
			expected: reviewtypes.ToolCallResponse{
				Call: reviewtypes.ToolCall{
					ID:   "toolu_1",
					Name: "propose_fix",
					Args: map[string]any{"fixed_content": "print('x')", "explanation": "closed paren"},
				},
				Text: "Missing paren.",
			},
		},
		{
			name: "extra tool uses dropped",
			content: `[{"type":"tool_use","id":"toolu_1","name":"propose_fix","input":{}},
				{"type":"tool_use","id":"toolu_2","name":"propose_fix","input":{}}]`,
			expected: reviewtypes.ToolCallResponse{
				Call:    reviewtypes.ToolCall{ID: "toolu_1", Name: "propose_fix", Args: map[string]any{}},
				Dropped: 1,
			},
		},
		{
			name:       "non-object input",
			content:    `[{"type":"tool_use","id":"toolu_1","name":"propose_fix","input":"oops"}]`,
			validation: true,
		},
		{
			name:     "empty content is an empty summary",
			content:  `[]`,
			expected: reviewtypes.TextResponse{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := processAnthropicResponse(decodeAnthropicMessage(t, tt.content))
			switch {
			case tt.validation:
				var validationErr *reviewtypes.ValidationError
				require.True(t, errors.As(err, &validationErr))
			case tt.expectError != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expected, response)
			}
		})
	}
}

func TestAnthropicClient_ProcessResponse_Nil(t *testing.T) {
	_, err := processAnthropicResponse(nil)
	assert.Error(t, err)
}

func TestAnthropicClient_Generate_ThroughTransport(t *testing.T) {
	transport := NewHTTPTransportService()
	transport.SetBase(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/messages", req.URL.Path)
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"propose_fix"`)
		return jsonResponse(req, http.StatusOK, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"stop_reason":"tool_use","usage":{"input_tokens":1,"output_tokens":1},
			"content":[{"type":"tool_use","id":"toolu_9","name":"propose_fix","input":{"fixed_content":"a","explanation":"b"}}]}`), nil
	}))
	require.NoError(t, transport.Initialize())

	client := NewAnthropicClient("sk-ant-test", "")
	client.SetHTTPClient(transport.Client())

	response, err := client.Generate(context.Background(), toolExchangeHistory(), []reviewtypes.ToolDeclaration{proposeFixDeclaration()})
	require.NoError(t, err)

	toolResponse, ok := response.(reviewtypes.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "toolu_9", toolResponse.Call.ID)
	assert.Equal(t, int64(1), transport.RequestCount())
}

func TestAnthropicClient_InterfaceCompliance(_ *testing.T) {
	var _ reviewtypes.ModelClient = (*AnthropicClient)(nil)
}
