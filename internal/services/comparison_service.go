package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"aireviewer/internal/logger"
)

// autoDiffTool asks the service to pick the first installed tool from commonDiffTools.
const autoDiffTool = "auto"

// commonDiffTools are tried in order when the diff tool is "auto".
var commonDiffTools = []string{"nvim -d", "vimdiff", "meld", "code --diff --wait"}

// ComparisonService launches an external diff tool to compare the original file with a
// proposed fix. An empty tool means the caller renders the comparison inline.
type ComparisonService struct {
	initialized bool
	lookPath    func(string) (string, error)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewComparisonService creates a new ComparisonService attached to the process terminal.
func NewComparisonService() *ComparisonService {
	return &ComparisonService{
		lookPath: exec.LookPath,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Name returns the service name "comparison" for registration.
func (c *ComparisonService) Name() string {
	return "comparison"
}

// Initialize sets up the ComparisonService for operation.
func (c *ComparisonService) Initialize() error {
	c.initialized = true
	return nil
}

// ResolveTool returns the command to run for the configured tool, or "" when the
// comparison should be rendered inline.
func (c *ComparisonService) ResolveTool(configured string) (string, error) {
	configured = strings.TrimSpace(configured)
	switch configured {
	case "":
		return "", nil
	case autoDiffTool:
		for _, tool := range commonDiffTools {
			if _, err := c.lookPath(strings.Fields(tool)[0]); err == nil {
				logger.Debug("Found diff tool in PATH", "tool", tool)
				return tool, nil
			}
		}
		logger.Debug("No diff tool found, using inline comparison")
		return "", nil
	}

	binary := strings.Fields(configured)[0]
	if _, err := c.lookPath(binary); err != nil {
		return "", fmt.Errorf("diff tool %q not found: %w", binary, err)
	}
	return configured, nil
}

// Compare runs tool with the two paths appended and waits for it to exit.
func (c *ComparisonService) Compare(ctx context.Context, tool, originalPath, proposedPath string) error {
	if !c.initialized {
		return fmt.Errorf("comparison service not initialized")
	}

	parts := strings.Fields(tool)
	if len(parts) == 0 {
		return fmt.Errorf("empty diff tool command")
	}

	args := append(parts[1:], originalPath, proposedPath)
	cmd := exec.CommandContext(ctx, parts[0], args...)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	logger.Debug("Opening comparison", "tool", parts[0], "original", originalPath, "proposed", proposedPath)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("diff tool failed: %w", err)
	}
	return nil
}

// GetGlobalComparisonService returns the registered ComparisonService.
func GetGlobalComparisonService() (*ComparisonService, error) {
	return getTypedService[*ComparisonService]("comparison")
}
