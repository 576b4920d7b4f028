package services

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"aireviewer/internal/logger"
	"aireviewer/pkg/reviewtypes"

	"gopkg.in/yaml.v3"
)

// Transcript is the exported record of one review session.
type Transcript struct {
	SessionID string             `yaml:"session_id"`
	File      string             `yaml:"file"`
	Provider  string             `yaml:"provider"`
	Model     string             `yaml:"model,omitempty"`
	StartedAt time.Time          `yaml:"started_at"`
	Duration  string             `yaml:"duration"`
	Outcome   string             `yaml:"outcome"`
	Error     string             `yaml:"error,omitempty"`
	Summary   string             `yaml:"summary,omitempty"`
	Turns     []reviewtypes.Turn `yaml:"turns"`
}

// TranscriptService writes review transcripts as YAML. Nothing is read back: sessions
// do not persist across runs.
type TranscriptService struct {
	initialized bool
}

// NewTranscriptService creates a new TranscriptService instance.
func NewTranscriptService() *TranscriptService {
	return &TranscriptService{}
}

// Name returns the service name "transcript" for registration.
func (s *TranscriptService) Name() string {
	return "transcript"
}

// Initialize sets up the TranscriptService for operation.
func (s *TranscriptService) Initialize() error {
	s.initialized = true
	return nil
}

// Encode renders the transcript as YAML.
func (s *TranscriptService) Encode(transcript Transcript) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(transcript); err != nil {
		return nil, fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode transcript: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores the transcript at path, replacing any existing file.
func (s *TranscriptService) Write(path string, transcript Transcript) error {
	if !s.initialized {
		return fmt.Errorf("transcript service not initialized")
	}

	data, err := s.Encode(transcript)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return &reviewtypes.StorageError{Op: "write transcript", Path: path, Err: err}
	}

	logger.Debug("Transcript written", "path", path, "turns", len(transcript.Turns))
	return nil
}

// GetGlobalTranscriptService returns the registered TranscriptService.
func GetGlobalTranscriptService() (*TranscriptService, error) {
	return getTypedService[*TranscriptService]("transcript")
}
