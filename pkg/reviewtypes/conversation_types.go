// Package reviewtypes defines the types shared by the review driver, the provider clients
// and the terminal host.
// This file contains the conversation history model exchanged with the language model.
package reviewtypes

import (
	"fmt"
)

// Role identifies who produced a turn.
type Role string

const (
	// RoleUser marks turns produced by the reviewer (prompt and tool results).
	RoleUser Role = "user"
	// RoleModel marks turns produced by the language model.
	RoleModel Role = "model"
)

// ToolCall is a structured request from the model to run a named tool.
type ToolCall struct {
	ID   string         `yaml:"id" json:"id"`
	Name string         `yaml:"name" json:"name"`
	Args map[string]any `yaml:"args" json:"args"`
}

// ToolResult answers a ToolCall with the same ID.
type ToolResult struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Result string `yaml:"result" json:"result"`
}

// Part is one payload of a turn. Exactly one field is set.
type Part struct {
	Text       string      `yaml:"text,omitempty" json:"text,omitempty"`
	ToolCall   *ToolCall   `yaml:"tool_call,omitempty" json:"tool_call,omitempty"`
	ToolResult *ToolResult `yaml:"tool_result,omitempty" json:"tool_result,omitempty"`
}

// TextPart creates a plain text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ToolCallPart creates a part recording a tool call request.
func ToolCallPart(call ToolCall) Part {
	return Part{ToolCall: &call}
}

// ToolResultPart creates a part recording a tool call result.
func ToolResultPart(result ToolResult) Part {
	return Part{ToolResult: &result}
}

// Turn is one entry in the conversation history.
type Turn struct {
	Role  Role   `yaml:"role" json:"role"`
	Parts []Part `yaml:"parts" json:"parts"`
}

// ToolCall returns the first tool call of the turn, if any.
func (t Turn) ToolCall() (ToolCall, bool) {
	for _, p := range t.Parts {
		if p.ToolCall != nil {
			return *p.ToolCall, true
		}
	}
	return ToolCall{}, false
}

// ToolResult returns the first tool result of the turn, if any.
func (t Turn) ToolResult() (ToolResult, bool) {
	for _, p := range t.Parts {
		if p.ToolResult != nil {
			return *p.ToolResult, true
		}
	}
	return ToolResult{}, false
}

// History is the ordered, append-only sequence of turns of one review session.
type History struct {
	turns []Turn
}

// NewHistory creates a history seeded with a single user text turn.
func NewHistory(prompt string) *History {
	return &History{
		turns: []Turn{{Role: RoleUser, Parts: []Part{TextPart(prompt)}}},
	}
}

// Append adds a turn at the end of the history.
func (h *History) Append(turn Turn) {
	h.turns = append(h.turns, turn)
}

// AppendToolExchange records a model tool call followed by its user-side result.
// The two turns are always appended together.
func (h *History) AppendToolExchange(call ToolCall, result ToolResult) {
	h.turns = append(h.turns,
		Turn{Role: RoleModel, Parts: []Part{ToolCallPart(call)}},
		Turn{Role: RoleUser, Parts: []Part{ToolResultPart(result)}},
	)
}

// Turns returns a copy of the turns in order.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int {
	return len(h.turns)
}

// ToolTurns counts the model turns that carry a tool call.
func (h *History) ToolTurns() int {
	n := 0
	for _, t := range h.turns {
		if _, ok := t.ToolCall(); ok && t.Role == RoleModel {
			n++
		}
	}
	return n
}

// Validate checks that every model tool call is immediately followed by exactly one
// user turn carrying the result for the same call.
func (h *History) Validate() error {
	for i, t := range h.turns {
		call, ok := t.ToolCall()
		if !ok {
			continue
		}
		if t.Role != RoleModel {
			return fmt.Errorf("turn %d: tool call recorded with role %q", i, t.Role)
		}
		if i+1 >= len(h.turns) {
			return fmt.Errorf("turn %d: tool call %q has no result", i, call.Name)
		}
		next := h.turns[i+1]
		result, ok := next.ToolResult()
		if !ok || next.Role != RoleUser {
			return fmt.Errorf("turn %d: tool call %q not followed by a tool result", i, call.Name)
		}
		if result.ID != call.ID {
			return fmt.Errorf("turn %d: tool result id %q does not match call id %q", i+1, result.ID, call.ID)
		}
		if i+2 < len(h.turns) {
			if _, dup := h.turns[i+2].ToolResult(); dup {
				return fmt.Errorf("turn %d: duplicate tool result for call %q", i+2, call.Name)
			}
		}
	}
	return nil
}
