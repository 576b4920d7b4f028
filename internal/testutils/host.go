package testutils

import (
	"context"
	"os"
	"strings"
	"sync"

	"aireviewer/pkg/reviewtypes"
)

// ConfirmCall records one Confirm prompt.
type ConfirmCall struct {
	Message string
	Options []string
}

// ComparisonCall records one OpenComparison request. ProposedContent is the content of
// the proposed file at the moment the comparison was opened.
type ComparisonCall struct {
	OriginalPath    string
	ProposedPath    string
	Title           string
	ProposedContent string
}

// Notification records one Notify call.
type Notification struct {
	Level   reviewtypes.NotifyLevel
	Message string
}

// FakeHost is a headless reviewtypes.Host. Confirm answers are taken from Answers in
// order; once exhausted the prompt counts as dismissed.
type FakeHost struct {
	mu sync.Mutex

	Answers    []string
	ConfirmErr error
	OpenErr    error
	CloseErr   error
	// OnConfirm runs inside Confirm before the answer is returned.
	OnConfirm func(call ConfirmCall)

	Progress      []string
	Confirms      []ConfirmCall
	Comparisons   []ComparisonCall
	Closed        int
	Notifications []Notification
}

// NewFakeHost creates a host that answers the confirm prompts with answers.
func NewFakeHost(answers ...string) *FakeHost {
	return &FakeHost{Answers: answers}
}

// ShowProgress implements reviewtypes.Host.
func (h *FakeHost) ShowProgress(title string, fn func() error) error {
	h.mu.Lock()
	h.Progress = append(h.Progress, title)
	h.mu.Unlock()
	return fn()
}

// Confirm implements reviewtypes.Host.
func (h *FakeHost) Confirm(_ context.Context, message string, options ...string) (string, error) {
	call := ConfirmCall{Message: message, Options: append([]string(nil), options...)}

	h.mu.Lock()
	h.Confirms = append(h.Confirms, call)
	hook := h.OnConfirm
	var answer string
	if len(h.Answers) > 0 {
		answer = h.Answers[0]
		h.Answers = h.Answers[1:]
	}
	err := h.ConfirmErr
	h.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}

// OpenComparison implements reviewtypes.Host.
func (h *FakeHost) OpenComparison(_ context.Context, originalPath, proposedPath, title string) (reviewtypes.ComparisonHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.OpenErr != nil {
		return nil, h.OpenErr
	}

	content, _ := os.ReadFile(proposedPath)
	h.Comparisons = append(h.Comparisons, ComparisonCall{
		OriginalPath:    originalPath,
		ProposedPath:    proposedPath,
		Title:           title,
		ProposedContent: string(content),
	})
	return &fakeHandle{host: h}, nil
}

// Notify implements reviewtypes.Host.
func (h *FakeHost) Notify(level reviewtypes.NotifyLevel, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Notifications = append(h.Notifications, Notification{Level: level, Message: message})
}

// ClosedCount returns how many comparison handles were closed.
func (h *FakeHost) ClosedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Closed
}

type fakeHandle struct {
	host   *FakeHost
	closed bool
}

func (f *fakeHandle) Close() error {
	f.host.mu.Lock()
	defer f.host.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.host.Closed++
	}
	return f.host.CloseErr
}

// MemoryOutput is an in-memory reviewtypes.OutputChannel.
type MemoryOutput struct {
	mu      sync.Mutex
	lines   []string
	Cleared int
	Shown   int
}

// NewMemoryOutput creates an empty MemoryOutput.
func NewMemoryOutput() *MemoryOutput {
	return &MemoryOutput{}
}

// Clear implements reviewtypes.OutputChannel.
func (o *MemoryOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = nil
	o.Cleared++
}

// Show implements reviewtypes.OutputChannel.
func (o *MemoryOutput) Show() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Shown++
}

// AppendLine implements reviewtypes.OutputChannel.
func (o *MemoryOutput) AppendLine(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, text)
}

// Lines returns a copy of the appended lines.
func (o *MemoryOutput) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.lines...)
}

// Text returns the appended lines joined by newlines.
func (o *MemoryOutput) Text() string {
	return strings.Join(o.Lines(), "\n")
}
