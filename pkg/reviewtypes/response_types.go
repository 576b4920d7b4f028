package reviewtypes

// ModelResponse is the result of one model request. It is either a TextResponse or a
// ToolCallResponse; the unexported marker keeps the set closed so a type switch over it
// is exhaustive.
type ModelResponse interface {
	isModelResponse()
}

// TextResponse is a terminal, free-text model answer.
type TextResponse struct {
	Text string
}

// ToolCallResponse asks the host to run a tool. Text holds any prose the model sent
// alongside the call.
type ToolCallResponse struct {
	Call ToolCall
	Text string
	// Dropped counts additional tool calls in the same response that were ignored.
	Dropped int
}

func (TextResponse) isModelResponse()     {}
func (ToolCallResponse) isModelResponse() {}

// ParameterType is the JSON schema type of a tool parameter.
type ParameterType string

const (
	// ParameterString is a JSON string parameter.
	ParameterString ParameterType = "string"
)

// ToolParameter describes one field of a tool's argument object.
type ToolParameter struct {
	Name        string
	Type        ParameterType
	Description string
	Required    bool
}

// ToolDeclaration is the provider-neutral declaration of a callable tool.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// RequiredNames returns the names of the required parameters in declaration order.
func (d ToolDeclaration) RequiredNames() []string {
	var names []string
	for _, p := range d.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// JSONSchema renders the parameters as a JSON schema object.
func (d ToolDeclaration) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	for _, p := range d.Parameters {
		props[p.Name] = map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if required := d.RequiredNames(); len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// FixProposal is the transient fix suggested by the model.
type FixProposal struct {
	FixedContent string
	Explanation  string
}

// Decision is the user's answer to a fix proposal.
type Decision int

const (
	// DecisionRejected leaves the target untouched.
	DecisionRejected Decision = iota
	// DecisionAccepted overwrites the target with the proposed content.
	DecisionAccepted
)

func (d Decision) String() string {
	if d == DecisionAccepted {
		return "accepted"
	}
	return "rejected"
}
