package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"
)

// Differ renders an inline comparison of two texts.
type Differ interface {
	Render(title, original, proposed string) (string, error)
}

// Launcher runs an external comparison tool and waits for it to exit.
type Launcher interface {
	Compare(ctx context.Context, tool, originalPath, proposedPath string) error
}

// Host implements reviewtypes.Host on a terminal. The comparison view is either an
// inline diff or an external tool; the confirm prompt reads one line from the input.
type Host struct {
	settings settings
	styles   styles
	differ   Differ
	launcher Launcher
	diffTool string

	mu     sync.Mutex
	reader *bufio.Reader
}

// NewHost creates a Host. An empty diffTool renders comparisons inline with differ.
func NewHost(differ Differ, launcher Launcher, diffTool string, options ...Option) *Host {
	s := settings{writer: os.Stdout, input: os.Stdin}
	for _, opt := range options {
		opt(&s)
	}
	return &Host{
		settings: s,
		styles:   newStyles(s.plain),
		differ:   differ,
		launcher: launcher,
		diffTool: diffTool,
		reader:   bufio.NewReader(s.input),
	}
}

// ShowProgress prints title, runs fn to completion and reports how long it took.
func (h *Host) ShowProgress(title string, fn func() error) error {
	h.println(h.styles.muted.Render("⏳ " + title))
	start := time.Now()
	err := fn()
	logger.Debug("Progress finished", "title", title, "elapsed", time.Since(start).Round(time.Millisecond))
	return err
}

// Confirm prints message with numbered options and reads the answer. An answer may be
// the option number, its label or the label's first letter. End of input, or three
// unrecognised answers, dismisses the prompt.
func (h *Host) Confirm(ctx context.Context, message string, options ...string) (string, error) {
	h.println(h.styles.prompt.Render(message))
	for i, option := range options {
		h.println(h.styles.option.Render(fmt.Sprintf("  [%d] %s", i+1, option)))
	}

	for attempt := 0; attempt < 3; attempt++ {
		h.print(h.styles.muted.Render("> "))
		line, err := h.readLine(ctx)
		if err == io.EOF {
			h.println("")
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if choice, ok := matchOption(line, options); ok {
			return choice, nil
		}
		h.println(h.styles.err.Render(fmt.Sprintf("Please answer 1-%d.", len(options))))
	}
	return "", nil
}

// OpenComparison shows originalPath next to proposedPath.
func (h *Host) OpenComparison(ctx context.Context, originalPath, proposedPath, title string) (reviewtypes.ComparisonHandle, error) {
	if h.diffTool != "" {
		if err := h.launcher.Compare(ctx, h.diffTool, originalPath, proposedPath); err != nil {
			return nil, err
		}
		return comparisonHandle{}, nil
	}

	original, err := os.ReadFile(originalPath)
	if err != nil {
		return nil, &reviewtypes.StorageError{Op: "read", Path: originalPath, Err: err}
	}
	proposed, err := os.ReadFile(proposedPath)
	if err != nil {
		return nil, &reviewtypes.StorageError{Op: "read", Path: proposedPath, Err: err}
	}

	rendered, err := h.differ.Render(title, string(original), string(proposed))
	if err != nil {
		return nil, fmt.Errorf("failed to render comparison: %w", err)
	}
	h.println(rendered)
	return comparisonHandle{}, nil
}

// Notify prints a one-line notification.
func (h *Host) Notify(level reviewtypes.NotifyLevel, message string) {
	if level == reviewtypes.NotifyError {
		h.println(h.styles.err.Render("✖ " + message))
		return
	}
	h.println(h.styles.success.Render("✔ " + message))
}

// readLine reads one line without blocking past ctx. A read abandoned by ctx keeps
// running and its line is lost.
func (h *Host) readLine(ctx context.Context) (string, error) {
	type readResult struct {
		line string
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		line, err := h.reader.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		done <- readResult{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case r := <-done:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (h *Host) print(text string) {
	_, _ = io.WriteString(h.settings.writer, text)
}

func (h *Host) println(text string) {
	_, _ = fmt.Fprintln(h.settings.writer, text)
}

// matchOption resolves an answer against options.
func matchOption(answer string, options []string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", false
	}
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		return "", false
	}
	for _, option := range options {
		if strings.EqualFold(answer, option) {
			return option, true
		}
	}
	for _, option := range options {
		if option != "" && strings.EqualFold(answer, option[:1]) {
			return option, true
		}
	}
	return "", false
}

// comparisonHandle is returned once the comparison has been shown; the inline diff
// and a finished external tool leave nothing to release.
type comparisonHandle struct{}

func (comparisonHandle) Close() error { return nil }
