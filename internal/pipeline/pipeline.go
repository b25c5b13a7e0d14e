// Package pipeline coordinates the transcript sources for one video: native
// subtitles first, downloaded subtitle files second, speech-to-text last,
// with LLM correction layered over ASR output. Results are cached on disk per
// video so repeat runs cost nothing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bilitext/internal/bili"
	"bilitext/internal/fileutil"
	"bilitext/internal/logging"
	"bilitext/internal/resolver"
	"bilitext/internal/services"
	"bilitext/internal/services/corrector"
)

// CorrectedTranscriptName is the per-video corrected transcript file, stored
// next to the raw one.
const CorrectedTranscriptName = "transcript_corrected.txt"

// CorrectionNotesName holds the fixes the model reported for a video, stored
// beside the corrected transcript. Only written when there were any.
const CorrectionNotesName = "corrections.txt"

// Partial-content policies for pay-walled videos.
const (
	PolicySkip   = "skip"
	PolicyForce  = "force"
	PolicyPrompt = "prompt"
)

// Result is the transcript the coordinator settled on for one video.
type Result struct {
	Text   string
	Origin resolver.Origin
	// CorrectionNotes lists the fixes the LLM reported, when correction ran.
	CorrectionNotes string
	// CorrectionFailed is set when ASR text is returned raw because the
	// correction pass failed.
	CorrectionFailed bool
}

// Options configures a Coordinator.
type Options struct {
	// Resolvers run in order; the first artifact wins.
	Resolvers []resolver.Resolver
	// Corrector is optional; nil disables the correction pass.
	Corrector *corrector.Corrector
	// WorkRoot is the directory holding per-video work dirs.
	WorkRoot string
	// PartialContentPolicy decides what happens to pay-walled videos.
	PartialContentPolicy string
	Logger               *slog.Logger
}

// Coordinator walks the resolver chain for one video at a time.
type Coordinator struct {
	resolvers []resolver.Resolver
	corrector *corrector.Corrector
	workRoot  string
	policy    string
	logger    *slog.Logger
}

// New creates a coordinator.
func New(opts Options) (*Coordinator, error) {
	if len(opts.Resolvers) == 0 {
		return nil, errors.New("pipeline: at least one resolver required")
	}
	if strings.TrimSpace(opts.WorkRoot) == "" {
		return nil, errors.New("pipeline: work root required")
	}
	policy := strings.TrimSpace(opts.PartialContentPolicy)
	if policy == "" {
		policy = PolicySkip
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		resolvers: opts.Resolvers,
		corrector: opts.Corrector,
		workRoot:  opts.WorkRoot,
		policy:    policy,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// WorkDir returns the per-video working directory.
func (c *Coordinator) WorkDir(bvid string) string {
	return filepath.Join(c.workRoot, bvid)
}

// Transcript resolves the best available transcript for a video. cookieJar is
// an optional Netscape cookie file handed to downloader-backed resolvers.
func (c *Coordinator) Transcript(ctx context.Context, video *bili.VideoInfo, cookieJar string) (*Result, error) {
	if video == nil || strings.TrimSpace(video.BVID) == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "transcript", "video with bvid required", nil)
	}

	workDir := c.WorkDir(video.BVID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "transcript", "create work dir", err)
	}

	if result, ok := c.cachedResult(workDir, video.BVID); ok {
		return result, nil
	}

	if video.ChargingExclusive && c.policy != PolicyForce {
		if c.policy == PolicyPrompt {
			c.logger.Info("pay-walled video skipped; set partial_content_policy = \"force\" to fetch what is accessible",
				logging.String("bvid", video.BVID))
		}
		level := strings.TrimSpace(video.ChargingLevel)
		if level == "" {
			level = "charging exclusive"
		}
		return nil, services.Wrap(services.ErrValidation, "pipeline", "transcript",
			fmt.Sprintf("pay-walled video (%s) skipped by policy", level), nil)
	}

	req := &resolver.Request{Video: video, WorkDir: workDir, CookieJar: cookieJar}
	artifact, err := c.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	if artifact.Origin == resolver.OriginASR && c.corrector != nil {
		return c.correct(ctx, workDir, video.BVID, artifact), nil
	}
	return &Result{Text: artifact.Text, Origin: artifact.Origin}, nil
}

// cachedResult short-circuits when both the raw and corrected transcripts
// already exist from an earlier run.
func (c *Coordinator) cachedResult(workDir, bvid string) (*Result, bool) {
	rawPath := filepath.Join(workDir, resolver.RawTranscriptName)
	correctedPath := filepath.Join(workDir, CorrectedTranscriptName)
	if !fileutil.NonEmptyFile(rawPath) || !fileutil.NonEmptyFile(correctedPath) {
		return nil, false
	}
	data, err := os.ReadFile(correctedPath)
	if err != nil {
		c.logger.Warn("failed to read cached corrected transcript",
			logging.String("bvid", bvid),
			logging.Error(err))
		return nil, false
	}
	c.logger.Debug("reusing corrected transcript from disk", logging.String("bvid", bvid))
	return &Result{
		Text:   strings.TrimSpace(string(data)),
		Origin: resolver.OriginASRCorrected,
	}, true
}

func (c *Coordinator) resolve(ctx context.Context, req *resolver.Request) (*resolver.Artifact, error) {
	for _, r := range c.resolvers {
		artifact, err := r.Resolve(ctx, req)
		if err == nil {
			c.logger.Info("transcript resolved",
				logging.String("bvid", req.Video.BVID),
				logging.String("source", r.Name()))
			return artifact, nil
		}
		if errors.Is(err, services.ErrNotFound) {
			c.logger.Debug("source has nothing, falling back",
				logging.String("bvid", req.Video.BVID),
				logging.String("source", r.Name()),
				logging.Error(err))
			continue
		}
		return nil, err
	}
	return nil, services.Wrap(services.ErrNotFound, "pipeline", "transcript",
		fmt.Sprintf("no source produced a transcript for %s", req.Video.BVID), nil)
}

// correct runs the LLM pass over a raw ASR transcript. The raw text survives
// any failure: a flagged raw transcript beats a failed video.
func (c *Coordinator) correct(ctx context.Context, workDir, bvid string, artifact *resolver.Artifact) *Result {
	corrected, err := c.corrector.Correct(ctx, artifact.Text)
	if err != nil {
		c.logger.Warn("correction failed, keeping raw transcript",
			logging.String("bvid", bvid),
			logging.Error(err))
		return &Result{Text: artifact.Text, Origin: resolver.OriginASR, CorrectionFailed: true}
	}

	correctedPath := filepath.Join(workDir, CorrectedTranscriptName)
	if err := fileutil.WriteFileAtomic(correctedPath, []byte(corrected.Corrected+"\n"), 0o644); err != nil {
		c.logger.Warn("failed to persist corrected transcript",
			logging.String("bvid", bvid),
			logging.Error(err))
	}
	if corrected.Notes != "" {
		notesPath := filepath.Join(workDir, CorrectionNotesName)
		if err := fileutil.WriteFileAtomic(notesPath, []byte(corrected.Notes+"\n"), 0o644); err != nil {
			c.logger.Warn("failed to persist correction notes",
				logging.String("bvid", bvid),
				logging.Error(err))
		}
	}

	return &Result{
		Text:            corrected.Corrected,
		Origin:          resolver.OriginASRCorrected,
		CorrectionNotes: corrected.Notes,
	}
}
