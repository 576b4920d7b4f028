package reviewtypes

import "fmt"

// ConfigError reports a missing or invalid setting, such as an absent credential.
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration %s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ServiceError reports a failed call to the remote model service.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ValidationError reports malformed tool call arguments or an unknown tool.
type ValidationError struct {
	Tool    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s call: %s: %v", e.Tool, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid %s call: %s", e.Tool, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError reports a failed read or write of the target or temporary file.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SessionError reports a session-level failure such as exceeding the tool turn bound
// or starting a review while another one is running.
type SessionError struct {
	Message string
}

func (e *SessionError) Error() string {
	return e.Message
}
