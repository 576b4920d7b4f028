package review

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"

	"github.com/charmbracelet/log"
)

// ProgressTitle is shown while the model is working.
const ProgressTitle = "AI is reviewing..."

// CompletionMessage is the notification sent after a successful review.
const CompletionMessage = "Review Complete! Check the output above for the summary."

var summaryRule = strings.Repeat("=", 30)

// Reviewer runs one review conversation and returns the summary.
type Reviewer interface {
	RunReview(ctx context.Context, credential, targetPath, originalContent string) (string, error)
}

// Session is the entry point of a review. Only one review runs at a time.
type Session struct {
	host        reviewtypes.Host
	output      reviewtypes.OutputChannel
	credentials reviewtypes.CredentialSource
	reviewer    Reviewer
	logger      *log.Logger

	// renderSummary formats the summary for the output channel; nil prints it as is.
	renderSummary func(string) string

	inProgress  atomic.Bool
	lastSummary string
}

// NewSession creates a Session.
func NewSession(host reviewtypes.Host, output reviewtypes.OutputChannel, credentials reviewtypes.CredentialSource, reviewer Reviewer) *Session {
	return &Session{
		host:        host,
		output:      output,
		credentials: credentials,
		reviewer:    reviewer,
		logger:      logger.NewStyledLogger("Session"),
	}
}

// SetSummaryRenderer sets the formatter applied to the final summary.
func (s *Session) SetSummaryRenderer(render func(string) string) {
	s.renderSummary = render
}

// InProgress reports whether a review is running.
func (s *Session) InProgress() bool {
	return s.inProgress.Load()
}

// LastSummary returns the unrendered summary of the last successful review.
func (s *Session) LastSummary() string {
	return s.lastSummary
}

// Start reviews the file at targetPath. Errors are reported to the user and returned.
func (s *Session) Start(ctx context.Context, targetPath string) error {
	if !s.inProgress.CompareAndSwap(false, true) {
		err := &reviewtypes.SessionError{Message: "a review is already in progress"}
		s.reject(targetPath, err)
		return err
	}
	defer s.inProgress.Store(false)

	content, err := os.ReadFile(targetPath)
	if err != nil {
		storageErr := &reviewtypes.StorageError{Op: "read", Path: targetPath, Err: err}
		s.reject(targetPath, storageErr)
		return storageErr
	}

	credential, err := s.resolveCredential()
	if err != nil {
		s.reject(targetPath, err)
		return err
	}

	s.output.Clear()
	s.output.Show()
	s.output.AppendLine("🚀 Starting review for: " + filepath.Base(targetPath))
	s.logger.Debug("Review started", "path", targetPath, "bytes", len(content))

	var summary string
	err = s.host.ShowProgress(ProgressTitle, func() error {
		var runErr error
		summary, runErr = s.reviewer.RunReview(ctx, credential, targetPath, string(content))
		return runErr
	})
	if err != nil {
		s.logger.Warn("Review failed", "path", targetPath, "error", err)
		message := "Error: " + err.Error()
		s.host.Notify(reviewtypes.NotifyError, message)
		s.output.AppendLine(message)
		return err
	}

	s.lastSummary = summary
	if s.renderSummary != nil {
		summary = s.renderSummary(summary)
	}
	s.output.AppendLine("\n" + summaryRule)
	s.output.AppendLine(summary)
	s.output.AppendLine(summaryRule)
	s.host.Notify(reviewtypes.NotifyInfo, CompletionMessage)
	return nil
}

// reject reports a review that never reached the model. The output channel is left as the
// previous review wrote it.
func (s *Session) reject(targetPath string, err error) {
	s.logger.Warn("Review not started", "path", targetPath, "error", err)
	s.host.Notify(reviewtypes.NotifyError, err.Error())
}

// resolveCredential reads the credential fresh for this session.
func (s *Session) resolveCredential() (string, error) {
	credential, err := s.credentials.Credential()
	if err != nil {
		var cfgErr *reviewtypes.ConfigError
		if errors.As(err, &cfgErr) {
			return "", err
		}
		return "", &reviewtypes.ConfigError{Key: "api_key", Message: "cannot resolve credential", Err: err}
	}
	if strings.TrimSpace(credential) == "" {
		return "", &reviewtypes.ConfigError{Key: "api_key", Message: "API key missing"}
	}
	return credential, nil
}
