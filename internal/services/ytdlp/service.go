// Package ytdlp wraps the yt-dlp downloader for subtitle and audio retrieval.
package ytdlp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"bilitext/internal/logging"
	"bilitext/internal/services"
)

// DefaultBinary is the downloader executable resolved from PATH.
const DefaultBinary = "yt-dlp"

// Service invokes yt-dlp for a single video at a time.
type Service struct {
	binary        string
	timeout       time.Duration
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) (string, error)
}

// NewService creates a downloader service.
func NewService(binary string, timeout time.Duration, logger *slog.Logger) *Service {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		binary:  binary,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "ytdlp"),
	}
}

// WithCommandRunner sets a custom command runner (for testing). The runner
// returns the command's combined output.
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) (string, error)) {
	s.commandRunner = runner
}

// DownloadSubtitles fetches every available subtitle track for a video into
// outputDir without downloading the media itself. cookieFile is an optional
// Netscape cookie jar for authenticated sessions.
func (s *Service) DownloadSubtitles(ctx context.Context, videoURL, outputDir, cookieFile string) error {
	if strings.TrimSpace(videoURL) == "" {
		return services.Wrap(services.ErrValidation, "ytdlp", "download subtitles", "video url required", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "ytdlp", "download subtitles", "ensure output dir", err)
	}

	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "all",
		"-o", filepath.Join(outputDir, "%(id)s.%(ext)s"),
	}
	args = appendCookieFile(args, cookieFile)
	args = append(args, videoURL)

	output, err := s.run(ctx, args...)
	if err != nil {
		return classifyFailure("download subtitles", output, err)
	}
	s.logger.Debug("subtitle download finished",
		logging.String("url", videoURL),
		logging.String("output_dir", outputDir))
	return nil
}

// DownloadAudio fetches the best audio-only stream to outputPath.
func (s *Service) DownloadAudio(ctx context.Context, videoURL, outputPath, cookieFile string) error {
	if strings.TrimSpace(videoURL) == "" {
		return services.Wrap(services.ErrValidation, "ytdlp", "download audio", "video url required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "ytdlp", "download audio", "ensure output dir", err)
	}

	args := []string{
		"-f", "ba",
		"-o", outputPath,
	}
	args = appendCookieFile(args, cookieFile)
	args = append(args, videoURL)

	output, err := s.run(ctx, args...)
	if err != nil {
		return classifyFailure("download audio", output, err)
	}
	s.logger.Debug("audio download finished",
		logging.String("url", videoURL),
		logging.String("output_path", outputPath))
	return nil
}

func appendCookieFile(args []string, cookieFile string) []string {
	if strings.TrimSpace(cookieFile) != "" {
		return append(args, "--cookies", cookieFile)
	}
	return args
}

// authFailureMarkers are output fragments that mean the video is gated behind
// login or membership rather than simply unavailable. Retrying without
// credentials cannot succeed.
var authFailureMarkers = []string{
	"login required",
	"premium member",
	"charging exclusive",
	"members only",
	"大会员",
	"充电专属",
}

func classifyFailure(operation, output string, err error) error {
	lower := strings.ToLower(output)
	for _, marker := range authFailureMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return services.Wrap(services.ErrAuthRequired, "ytdlp", operation, firstLine(output), err)
		}
	}
	return services.Wrap(services.ErrExternalTool, "ytdlp", operation, firstLine(output), err)
}

func firstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR") {
			return line
		}
	}
	return strings.TrimSpace(strings.SplitN(output, "\n", 2)[0])
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
