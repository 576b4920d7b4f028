package services

import (
	"fmt"
	"strings"

	"aireviewer/internal/logger"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// defaultWordWrap is the column at which rendered summaries wrap.
const defaultWordWrap = 80

// MarkdownService renders the model's summary report for the terminal using Glamour.
// Models usually answer in markdown, so the summary is rendered rather than printed raw.
type MarkdownService struct {
	initialized bool
	renderer    *glamour.TermRenderer
	wordWrap    int
}

// NewMarkdownService creates a new MarkdownService instance.
func NewMarkdownService() *MarkdownService {
	return &MarkdownService{
		wordWrap: defaultWordWrap,
	}
}

// Name returns the service name "markdown" for registration.
func (m *MarkdownService) Name() string {
	return "markdown"
}

// Initialize sets up the MarkdownService with default configuration.
func (m *MarkdownService) Initialize() error {
	renderer, err := m.newRenderer(m.wordWrap)
	if err != nil {
		return err
	}

	m.renderer = renderer
	m.initialized = true

	logger.Debug("MarkdownService initialized successfully")
	return nil
}

// newRenderer picks the plain "notty" style on terminals without colour support.
func (m *MarkdownService) newRenderer(width int) (*glamour.TermRenderer, error) {
	styleOption := glamour.WithAutoStyle()
	if lipgloss.ColorProfile() == termenv.Ascii {
		styleOption = glamour.WithStylePath("notty")
	}

	renderer, err := glamour.NewTermRenderer(
		styleOption,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer, nil
}

// Render renders markdown content to ANSI terminal output.
func (m *MarkdownService) Render(markdown string) (string, error) {
	if !m.initialized {
		return "", fmt.Errorf("markdown service not initialized")
	}

	if strings.TrimSpace(markdown) == "" {
		return "", fmt.Errorf("markdown content cannot be empty")
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return rendered, nil
}

// RenderOrPlain renders markdown, falling back to the raw text when rendering fails.
func (m *MarkdownService) RenderOrPlain(markdown string) string {
	rendered, err := m.Render(markdown)
	if err != nil {
		logger.Debug("Markdown rendering skipped", "error", err)
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// GetGlobalMarkdownService returns the registered MarkdownService.
func GetGlobalMarkdownService() (*MarkdownService, error) {
	return getTypedService[*MarkdownService]("markdown")
}
