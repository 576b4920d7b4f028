// Package terminal provides the terminal implementations of the review host and the
// review output channel.
package terminal

import "io"

// settings is shared by Host and Output.
type settings struct {
	writer io.Writer
	input  io.Reader
	mirror io.Writer
	plain  bool
	prefix string
}

// Option configures a Host or an Output.
type Option func(*settings)

// WithWriter sets the destination of all user-facing text. Default is os.Stdout.
func WithWriter(writer io.Writer) Option {
	return func(s *settings) {
		if writer != nil {
			s.writer = writer
		}
	}
}

// WithInput sets where confirm answers are read from. Default is os.Stdin.
func WithInput(input io.Reader) Option {
	return func(s *settings) {
		if input != nil {
			s.input = input
		}
	}
}

// WithMirror copies every output line, unstyled, to w. Used for --log-file.
func WithMirror(w io.Writer) Option {
	return func(s *settings) {
		s.mirror = w
	}
}

// PlainText disables colours and decorations.
func PlainText() Option {
	return func(s *settings) {
		s.plain = true
	}
}

// WithPrefix prepends prefix to every output line.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}
