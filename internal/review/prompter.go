package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"

	"github.com/charmbracelet/log"
)

// Confirm prompt labels and the comparison view title.
const (
	OptionAccept    = "Accept Fix"
	OptionReject    = "Reject"
	ComparisonTitle = "Original ↔ AI Fix"
)

// Prompter writes a proposed fix to a temporary file, shows it next to the target and
// overwrites the target only when the user picks OptionAccept.
type Prompter struct {
	host    reviewtypes.Host
	output  reviewtypes.OutputChannel
	tempDir string
	logger  *log.Logger
}

// NewPrompter creates a Prompter that stages fixes in the system temp directory.
func NewPrompter(host reviewtypes.Host, output reviewtypes.OutputChannel) *Prompter {
	return &Prompter{
		host:    host,
		output:  output,
		tempDir: os.TempDir(),
		logger:  logger.NewStyledLogger("Prompter"),
	}
}

// SetTempDir changes where proposed fixes are staged.
func (p *Prompter) SetTempDir(dir string) {
	p.tempDir = dir
}

// Propose implements FixProposer. Every outcome, including a dismissed prompt, closes the
// comparison view and removes the staged file. The comparison reads the target from disk,
// so a proposal is always shown against the current file rather than the content the
// review started from.
func (p *Prompter) Propose(ctx context.Context, targetPath, _ string, proposal reviewtypes.FixProposal) (reviewtypes.Decision, error) {
	p.output.AppendLine("\n💡 AI Suggestion: " + proposal.Explanation)
	p.output.AppendLine("   Asking user for permission...")

	stagedPath, err := p.stage(targetPath, proposal.FixedContent)
	if err != nil {
		return reviewtypes.DecisionRejected, err
	}
	defer p.unstage(stagedPath)

	choice, err := p.ask(ctx, targetPath, stagedPath, proposal.Explanation)
	if err != nil {
		return reviewtypes.DecisionRejected, err
	}

	if choice != OptionAccept {
		p.logger.Debug("Fix rejected", "path", targetPath, "choice", choice)
		p.output.AppendLine("   ❌ User REJECTED the fix.")
		return reviewtypes.DecisionRejected, nil
	}

	if err := os.WriteFile(targetPath, []byte(proposal.FixedContent), 0644); err != nil {
		return reviewtypes.DecisionRejected, &reviewtypes.StorageError{Op: "overwrite", Path: targetPath, Err: err}
	}
	p.logger.Debug("Fix applied", "path", targetPath, "bytes", len(proposal.FixedContent))
	p.host.Notify(reviewtypes.NotifyInfo, "Fix applied!")
	p.output.AppendLine("   ✅ User ACCEPTED the fix.")
	return reviewtypes.DecisionAccepted, nil
}

// ask opens the comparison view, collects the answer and closes the view.
func (p *Prompter) ask(ctx context.Context, targetPath, stagedPath, explanation string) (string, error) {
	handle, err := p.host.OpenComparison(ctx, targetPath, stagedPath, ComparisonTitle)
	if err != nil {
		return "", fmt.Errorf("failed to open comparison view: %w", err)
	}
	defer func() {
		if closeErr := handle.Close(); closeErr != nil {
			p.logger.Warn("Failed to close comparison view", "error", closeErr)
		}
	}()

	choice, err := p.host.Confirm(ctx, "AI Suggestion: "+explanation, OptionAccept, OptionReject)
	if err != nil {
		return "", fmt.Errorf("failed to read decision: %w", err)
	}
	return choice, nil
}

// stage writes content to a fresh temp file named after the target.
func (p *Prompter) stage(targetPath, content string) (string, error) {
	file, err := os.CreateTemp(p.tempDir, "FIX_*_"+filepath.Base(targetPath))
	if err != nil {
		return "", &reviewtypes.StorageError{Op: "create temp file", Path: p.tempDir, Err: err}
	}
	path := file.Name()

	if _, err := file.WriteString(content); err != nil {
		_ = file.Close()
		p.unstage(path)
		return "", &reviewtypes.StorageError{Op: "write temp file", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		p.unstage(path)
		return "", &reviewtypes.StorageError{Op: "write temp file", Path: path, Err: err}
	}
	return path, nil
}

func (p *Prompter) unstage(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("Failed to remove staged fix", "path", path, "error", err)
	}
}
