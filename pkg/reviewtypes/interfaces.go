package reviewtypes

import "context"

// Service defines the interface for services registered at startup.
type Service interface {
	Name() string
	Initialize() error
}

// ModelClient sends the full history and the available tools to a language model and
// returns its response as a closed variant.
type ModelClient interface {
	Generate(ctx context.Context, history []Turn, tools []ToolDeclaration) (ModelResponse, error)

	// GetProviderName returns the name of the provider (e.g., "gemini", "openai").
	GetProviderName() string

	// IsConfigured returns true if the client has a credential.
	IsConfigured() bool
}

// OutputChannel is the persistent log surface of a review session.
type OutputChannel interface {
	Clear()
	Show()
	AppendLine(text string)
}

// ComparisonHandle is an open comparison view. Close releases it.
type ComparisonHandle interface {
	Close() error
}

// Host abstracts the editor or terminal the review runs in.
type Host interface {
	// ShowProgress runs fn while a non-cancellable progress indicator is visible.
	ShowProgress(title string, fn func() error) error

	// Confirm asks the user to pick one of options and returns the chosen one.
	// An empty string means the prompt was dismissed.
	Confirm(ctx context.Context, message string, options ...string) (string, error)

	// OpenComparison shows original and proposed side by side.
	OpenComparison(ctx context.Context, originalPath, proposedPath, title string) (ComparisonHandle, error)

	// Notify shows a transient message to the user.
	Notify(level NotifyLevel, message string)
}

// NotifyLevel is the severity of a transient notification.
type NotifyLevel int

const (
	NotifyInfo NotifyLevel = iota
	NotifyError
)

// CredentialSource resolves the model credential at session start.
type CredentialSource interface {
	Credential() (string, error)
}
