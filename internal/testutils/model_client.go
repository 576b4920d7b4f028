package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aireviewer/pkg/reviewtypes"
)

// Step is one scripted model reply. Exactly one of Response and Err is normally set.
// A positive Delay blocks until it elapses or the request context ends.
type Step struct {
	Response reviewtypes.ModelResponse
	Err      error
	Delay    time.Duration
}

// ScriptedModelClient replays Steps in order and records every request it receives.
type ScriptedModelClient struct {
	mu       sync.Mutex
	steps    []Step
	requests [][]reviewtypes.Turn
	tools    [][]reviewtypes.ToolDeclaration
}

// NewScriptedModelClient creates a client that answers with steps in order.
func NewScriptedModelClient(steps ...Step) *ScriptedModelClient {
	return &ScriptedModelClient{steps: steps}
}

// TextStep is a Step answering with a plain text response.
func TextStep(text string) Step {
	return Step{Response: reviewtypes.TextResponse{Text: text}}
}

// ProposeFixStep is a Step answering with a propose_fix call.
func ProposeFixStep(id, fixedContent, explanation string) Step {
	return Step{Response: reviewtypes.ToolCallResponse{
		Call: reviewtypes.ToolCall{
			ID:   id,
			Name: "propose_fix",
			Args: map[string]any{
				"fixed_content": fixedContent,
				"explanation":   explanation,
			},
		},
	}}
}

// Generate implements reviewtypes.ModelClient.
func (c *ScriptedModelClient) Generate(ctx context.Context, history []reviewtypes.Turn, tools []reviewtypes.ToolDeclaration) (reviewtypes.ModelResponse, error) {
	c.mu.Lock()
	snapshot := make([]reviewtypes.Turn, len(history))
	copy(snapshot, history)
	c.requests = append(c.requests, snapshot)
	c.tools = append(c.tools, tools)
	index := len(c.requests) - 1
	c.mu.Unlock()

	if index >= len(c.steps) {
		return nil, fmt.Errorf("no scripted response for request %d", index+1)
	}

	step := c.steps[index]
	if step.Delay > 0 {
		select {
		case <-time.After(step.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return step.Response, step.Err
}

// GetProviderName implements reviewtypes.ModelClient.
func (c *ScriptedModelClient) GetProviderName() string {
	return "scripted"
}

// IsConfigured implements reviewtypes.ModelClient.
func (c *ScriptedModelClient) IsConfigured() bool {
	return true
}

// Requests returns the histories sent so far, one per request.
func (c *ScriptedModelClient) Requests() [][]reviewtypes.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]reviewtypes.Turn, len(c.requests))
	copy(out, c.requests)
	return out
}

// RequestCount returns the number of requests received.
func (c *ScriptedModelClient) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Tools returns the tool declarations sent with request i.
func (c *ScriptedModelClient) Tools(i int) []reviewtypes.ToolDeclaration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tools[i]
}
