package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bilitext/internal/bili"
	"bilitext/internal/fileutil"
	"bilitext/internal/logging"
	"bilitext/internal/services"
	"bilitext/internal/services/whisper"
	"bilitext/internal/services/ytdlp"
)

const (
	// RawTranscriptName is the canonical per-video raw ASR transcript file.
	RawTranscriptName = "transcript.txt"
	audioFileName     = "audio.m4a"
)

// ASR resolves transcripts by downloading the audio stream and running
// speech-to-text over it. It is the last and most expensive source, so a
// previously produced transcript on disk short-circuits the whole run.
type ASR struct {
	downloader  *ytdlp.Service
	transcriber *whisper.Service
	logger      *slog.Logger
}

// NewASR creates the speech-to-text resolver.
func NewASR(downloader *ytdlp.Service, transcriber *whisper.Service, logger *slog.Logger) *ASR {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ASR{
		downloader:  downloader,
		transcriber: transcriber,
		logger:      logging.NewComponentLogger(logger, "resolver.asr"),
	}
}

func (r *ASR) Name() string { return string(OriginASR) }

// Resolve produces a raw ASR transcript for the video. The audio file is
// removed once transcription finishes, success or not; the transcript is the
// only artifact worth keeping.
func (r *ASR) Resolve(ctx context.Context, req *Request) (*Artifact, error) {
	if req == nil || req.Video == nil {
		return nil, services.Wrap(services.ErrValidation, "resolver", "asr", "video info required", nil)
	}
	if req.WorkDir == "" {
		return nil, services.Wrap(services.ErrValidation, "resolver", "asr", "work dir required", nil)
	}

	rawPath := filepath.Join(req.WorkDir, RawTranscriptName)
	if fileutil.NonEmptyFile(rawPath) {
		data, err := os.ReadFile(rawPath)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "resolver", "asr", "read cached transcript", err)
		}
		r.logger.Debug("reusing cached transcript",
			logging.String("bvid", req.Video.BVID),
			logging.String("path", rawPath))
		return &Artifact{Text: strings.TrimSpace(string(data)), Origin: OriginASR}, nil
	}

	audioPath := filepath.Join(req.WorkDir, audioFileName)
	if err := r.downloader.DownloadAudio(ctx, bili.VideoURL(req.Video.BVID), audioPath, req.CookieJar); err != nil {
		return nil, err
	}
	defer os.Remove(audioPath)

	if !fileutil.NonEmptyFile(audioPath) {
		return nil, services.Wrap(services.ErrExternalTool, "resolver", "asr",
			fmt.Sprintf("audio download produced no file at %s", audioPath), nil)
	}

	transcriptPath, err := r.transcriber.Transcribe(ctx, audioPath, req.WorkDir)
	if err != nil {
		return nil, err
	}
	if transcriptPath != rawPath {
		if err := os.Rename(transcriptPath, rawPath); err != nil {
			return nil, services.Wrap(services.ErrTransient, "resolver", "asr", "move transcript to canonical path", err)
		}
	}

	data, err := os.ReadFile(rawPath)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "resolver", "asr", "read transcript", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, services.Wrap(services.ErrExternalTool, "resolver", "asr", "transcription produced empty text", nil)
	}

	r.logger.Info("audio transcribed",
		logging.String("bvid", req.Video.BVID),
		logging.Int("chars", len(text)))
	return &Artifact{Text: text, Origin: OriginASR}, nil
}
