// Package whisper wraps the OpenAI Whisper CLI for speech-to-text fallback.
package whisper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"bilitext/internal/fileutil"
	"bilitext/internal/logging"
	"bilitext/internal/services"
)

const (
	// DefaultBinary is the whisper executable resolved from PATH.
	DefaultBinary = "whisper"
	// DefaultModel balances accuracy against runtime for talk-style videos.
	DefaultModel = "medium"
)

// Service invokes the whisper CLI to transcribe one audio file at a time.
type Service struct {
	binary        string
	model         string
	timeout       time.Duration
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) (string, error)
}

// NewService creates a transcription service.
func NewService(binary, model string, timeout time.Duration, logger *slog.Logger) *Service {
	if binary == "" {
		binary = DefaultBinary
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		binary:  binary,
		model:   model,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "whisper"),
	}
}

// WithCommandRunner sets a custom command runner (for testing). The runner
// returns the command's combined output.
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) (string, error)) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.model }

// Transcribe runs whisper on audioPath and returns the path of the text
// transcript it produced. Whisper names output files after the audio stem, so
// a run over videos/BV1/audio.m4a yields videos/BV1/audio.txt.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir string) (string, error) {
	if strings.TrimSpace(audioPath) == "" {
		return "", services.Wrap(services.ErrValidation, "whisper", "transcribe", "audio path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "ensure output dir", err)
	}

	args := []string{
		audioPath,
		"--model", s.model,
		"--output_dir", outputDir,
		"--output_format", "txt",
	}

	started := time.Now()
	output, err := s.run(ctx, args...)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "whisper", "transcribe", strings.TrimSpace(output), err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	transcriptPath := filepath.Join(outputDir, stem+".txt")
	if !fileutil.NonEmptyFile(transcriptPath) {
		return "", services.Wrap(services.ErrExternalTool, "whisper", "transcribe",
			fmt.Sprintf("expected transcript %s not produced", transcriptPath), nil)
	}

	s.logger.Info("transcription finished",
		logging.String("audio", audioPath),
		logging.String("transcript", transcriptPath),
		logging.Duration("elapsed", time.Since(started)))
	return transcriptPath, nil
}

func (s *Service) run(ctx context.Context, args ...string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.binary, args...)
	}
	cmd := exec.CommandContext(ctx, s.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("%s: %w", s.binary, err)
	}
	return string(output), nil
}
