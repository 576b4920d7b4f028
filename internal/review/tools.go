package review

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"aireviewer/pkg/reviewtypes"

	"github.com/go-playground/validator/v10"
)

// ToolHandler runs a tool with decoded arguments and returns the result text.
type ToolHandler func(ctx context.Context, args map[string]any) (string, error)

// Tool pairs a declaration with its handler.
type Tool struct {
	Declaration reviewtypes.ToolDeclaration
	Handler     ToolHandler
}

// FixProposer shows a proposed fix to the user and applies it on approval.
type FixProposer interface {
	Propose(ctx context.Context, targetPath, originalContent string, proposal reviewtypes.FixProposal) (reviewtypes.Decision, error)
}

// ProposeFixArgs are the arguments of propose_fix. Pointers distinguish a missing field
// from an empty one; empty strings are legitimate values for both.
type ProposeFixArgs struct {
	FixedContent *string `json:"fixed_content" validate:"required"`
	Explanation  *string `json:"explanation" validate:"required"`
}

// Adapter maps tool names to handlers and validates every call before running it.
type Adapter struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	validate *validator.Validate
}

// NewAdapter creates an empty Adapter.
func NewAdapter() *Adapter {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Adapter{
		tools:    make(map[string]Tool),
		validate: v,
	}
}

// NewSessionAdapter creates the adapter for one review: propose_fix bound to targetPath.
func NewSessionAdapter(proposer FixProposer, targetPath, originalContent string) *Adapter {
	a := NewAdapter()
	_ = a.Register(Tool{
		Declaration: ProposeFixDeclaration(),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			parsed, err := decodeArgs[ProposeFixArgs](a, ProposeFixTool, args)
			if err != nil {
				return "", err
			}
			decision, err := proposer.Propose(ctx, targetPath, originalContent, reviewtypes.FixProposal{
				FixedContent: *parsed.FixedContent,
				Explanation:  *parsed.Explanation,
			})
			if err != nil {
				return "", err
			}
			if decision == reviewtypes.DecisionAccepted {
				return AcceptedResult, nil
			}
			return RejectedResult, nil
		},
	})
	return a
}

// Register adds a tool. Names must be unique and handlers set.
func (a *Adapter) Register(tool Tool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := tool.Declaration.Name
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %s has no handler", name)
	}
	if _, exists := a.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	a.tools[name] = tool
	return nil
}

// Declarations returns the declarations of all registered tools, sorted by name.
func (a *Adapter) Declarations() []reviewtypes.ToolDeclaration {
	a.mu.RLock()
	defer a.mu.RUnlock()

	decls := make([]reviewtypes.ToolDeclaration, 0, len(a.tools))
	for _, tool := range a.tools {
		decls = append(decls, tool.Declaration)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}

// Execute runs call synchronously and returns its result, answering the same call id.
// An unknown tool is a ValidationError.
func (a *Adapter) Execute(ctx context.Context, call reviewtypes.ToolCall) (reviewtypes.ToolResult, error) {
	a.mu.RLock()
	tool, ok := a.tools[call.Name]
	a.mu.RUnlock()
	if !ok {
		return reviewtypes.ToolResult{}, &reviewtypes.ValidationError{
			Tool:    call.Name,
			Message: "unknown tool",
		}
	}

	text, err := tool.Handler(ctx, call.Args)
	if err != nil {
		return reviewtypes.ToolResult{}, err
	}
	return reviewtypes.ToolResult{ID: call.ID, Name: call.Name, Result: text}, nil
}

// decodeArgs converts loosely typed model arguments into T and validates it.
func decodeArgs[T any](a *Adapter, tool string, args map[string]any) (*T, error) {
	var result T
	data, err := json.Marshal(args)
	if err != nil {
		return nil, &reviewtypes.ValidationError{Tool: tool, Message: "arguments cannot be encoded", Err: err}
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &reviewtypes.ValidationError{Tool: tool, Message: "arguments have the wrong shape", Err: err}
	}

	if err := a.validate.Struct(result); err != nil {
		return nil, &reviewtypes.ValidationError{Tool: tool, Message: describeValidation(err), Err: err}
	}
	return &result, nil
}

// describeValidation turns validator errors into "field is required" style text.
func describeValidation(err error) string {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
