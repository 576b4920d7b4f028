package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Defaults for DriverConfig.
const (
	DefaultMaxToolTurns   = 8
	DefaultRequestTimeout = 120 * time.Second
)

// ClientFactory builds a model client for one session from the resolved credential.
type ClientFactory func(credential string) (reviewtypes.ModelClient, error)

// DriverConfig bounds a review conversation.
type DriverConfig struct {
	// MaxToolTurns is the number of tool calls a session may execute. Zero means the default.
	MaxToolTurns int
	// RequestTimeout applies to each model request. Zero disables it.
	RequestTimeout time.Duration
}

// Driver runs the conversation loop between the model and the Tool Invocation Adapter.
type Driver struct {
	newClient ClientFactory
	proposer  FixProposer
	config    DriverConfig
	newID     func() string
	logger    *log.Logger

	history *reviewtypes.History
}

// NewDriver creates a Driver. proposer handles every propose_fix call.
func NewDriver(newClient ClientFactory, proposer FixProposer, config DriverConfig) *Driver {
	if config.MaxToolTurns <= 0 {
		config.MaxToolTurns = DefaultMaxToolTurns
	}
	return &Driver{
		newClient: newClient,
		proposer:  proposer,
		config:    config,
		newID:     uuid.NewString,
		logger:    logger.NewStyledLogger("Driver"),
	}
}

// SetIDGenerator replaces the generator used for tool calls that arrive without an id.
func (d *Driver) SetIDGenerator(newID func() string) {
	d.newID = newID
}

// History returns the turns of the most recent review, or nil before the first one.
func (d *Driver) History() []reviewtypes.Turn {
	if d.history == nil {
		return nil
	}
	return d.history.Turns()
}

// RunReview reviews originalContent and returns the model's final summary. Every
// propose_fix call is resolved before the next request is sent.
func (d *Driver) RunReview(ctx context.Context, credential, targetPath, originalContent string) (string, error) {
	client, err := d.newClient(credential)
	if err != nil {
		var cfgErr *reviewtypes.ConfigError
		if errors.As(err, &cfgErr) {
			return "", err
		}
		return "", &reviewtypes.ConfigError{Key: "provider", Message: "cannot create model client", Err: err}
	}

	adapter := NewSessionAdapter(d.proposer, targetPath, originalContent)
	tools := adapter.Declarations()
	history := reviewtypes.NewHistory(InitialPrompt(originalContent))
	d.history = history

	for {
		response, err := d.generate(ctx, client, history, tools)
		if err != nil {
			return "", err
		}

		switch r := response.(type) {
		case reviewtypes.TextResponse:
			d.logger.Debug("Review finished", "turns", history.Len(), "tool_turns", history.ToolTurns())
			return r.Text, nil

		case reviewtypes.ToolCallResponse:
			if history.ToolTurns() >= d.config.MaxToolTurns {
				return "", &reviewtypes.SessionError{
					Message: fmt.Sprintf("model kept calling tools after %d tool turns without a summary", d.config.MaxToolTurns),
				}
			}

			call := r.Call
			if call.ID == "" {
				call.ID = d.newID()
			}
			if r.Dropped > 0 {
				d.logger.Warn("Ignoring extra tool calls", "tool", call.Name, "dropped", r.Dropped)
			}
			d.logger.Debug("Executing tool", "tool", call.Name, "turn", history.ToolTurns()+1)

			result, err := adapter.Execute(ctx, call)
			if err != nil {
				return "", err
			}
			history.AppendToolExchange(call, result)

		default:
			return "", &reviewtypes.ServiceError{
				Provider: client.GetProviderName(),
				Err:      fmt.Errorf("unexpected response type %T", response),
			}
		}
	}
}

// generate sends one request under the configured timeout. Untyped failures become
// ServiceErrors.
func (d *Driver) generate(ctx context.Context, client reviewtypes.ModelClient, history *reviewtypes.History, tools []reviewtypes.ToolDeclaration) (reviewtypes.ModelResponse, error) {
	reqCtx := ctx
	if d.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, d.config.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	response, err := client.Generate(reqCtx, history.Turns(), tools)
	d.logger.Debug("Model responded", "provider", client.GetProviderName(), "turns", history.Len(), "elapsed", time.Since(start))

	if err != nil {
		var validationErr *reviewtypes.ValidationError
		var serviceErr *reviewtypes.ServiceError
		if errors.As(err, &validationErr) || errors.As(err, &serviceErr) {
			return nil, err
		}
		if d.config.RequestTimeout > 0 && errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("no response within %s: %w", d.config.RequestTimeout, err)
		}
		return nil, &reviewtypes.ServiceError{Provider: client.GetProviderName(), Err: err}
	}
	if response == nil {
		return nil, &reviewtypes.ServiceError{Provider: client.GetProviderName(), Err: errors.New("empty response")}
	}
	return response, nil
}
