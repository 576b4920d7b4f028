package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// outputTitle heads the output channel after every Show.
const outputTitle = "aireviewer output"

// Output is the terminal review output channel. Lines are written as they arrive and
// kept until the next Clear.
type Output struct {
	mu       sync.Mutex
	settings settings
	styles   styles
	lines    []string
	shown    bool
}

// NewOutput creates an Output writing to os.Stdout by default.
func NewOutput(options ...Option) *Output {
	s := settings{writer: os.Stdout}
	for _, opt := range options {
		opt(&s)
	}
	return &Output{settings: s, styles: newStyles(s.plain)}
}

// Clear forgets the lines of the previous review.
func (o *Output) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = nil
	o.shown = false
}

// Show prints the channel header once per review.
func (o *Output) Show() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.shown {
		return
	}
	o.shown = true
	o.write(o.styles.header.Render(outputTitle))
}

// AppendLine writes text followed by a newline.
func (o *Output) AppendLine(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, text)
	o.write(text)
}

// Lines returns the lines appended since the last Clear.
func (o *Output) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.lines...)
}

// write sends text to the terminal and, without escape sequences, to the mirror.
// Write errors are ignored.
func (o *Output) write(text string) {
	_, _ = fmt.Fprintln(o.settings.writer, o.prefixed(text))
	if o.settings.mirror != nil {
		_, _ = io.WriteString(o.settings.mirror, o.prefixed(ansi.Strip(text))+"\n")
	}
}

func (o *Output) prefixed(text string) string {
	if o.settings.prefix == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = o.settings.prefix + line
	}
	return strings.Join(lines, "\n")
}
