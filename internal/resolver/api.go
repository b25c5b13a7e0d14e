package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bilitext/internal/bili"
	"bilitext/internal/logging"
	"bilitext/internal/services"
)

// API resolves transcripts from the platform's native subtitle listing. Any
// failure here is recoverable: the platform simply has nothing we can use and
// the next source should run.
type API struct {
	client *bili.Client
	logger *slog.Logger
}

// NewAPI creates the native subtitle resolver.
func NewAPI(client *bili.Client, logger *slog.Logger) *API {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &API{
		client: client,
		logger: logging.NewComponentLogger(logger, "resolver.api"),
	}
}

func (r *API) Name() string { return string(OriginAPI) }

// Resolve fetches every listed subtitle track and concatenates them in
// listing order, each cue rendered as a bracketed-seconds line.
func (r *API) Resolve(ctx context.Context, req *Request) (*Artifact, error) {
	if req == nil || req.Video == nil {
		return nil, services.Wrap(services.ErrValidation, "resolver", "api", "video info required", nil)
	}
	if req.Video.CID <= 0 {
		return nil, services.Wrap(services.ErrNotFound, "resolver", "api", "video has no cid", nil)
	}

	tracks, err := r.client.GetSubtitleListing(ctx, req.Video.BVID, req.Video.CID)
	if err != nil {
		// A failed listing and an empty listing look the same to the caller.
		return nil, services.Wrap(services.ErrNotFound, "resolver", "api", "subtitle listing failed", err)
	}
	if len(tracks) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "resolver", "api", "no native subtitles", nil)
	}

	var sections []string
	for _, track := range tracks {
		lines, err := r.client.FetchSubtitle(ctx, track.URL)
		if err != nil {
			r.logger.Warn("subtitle track fetch failed",
				logging.String("bvid", req.Video.BVID),
				logging.String("language", track.Language),
				logging.Error(err))
			continue
		}
		if section := formatTrack(track, lines); section != "" {
			sections = append(sections, section)
		}
	}
	if len(sections) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "resolver", "api", "all subtitle tracks empty", nil)
	}

	r.logger.Debug("native subtitles resolved",
		logging.String("bvid", req.Video.BVID),
		logging.Int("track_count", len(sections)))
	return &Artifact{
		Text:   strings.Join(sections, "\n\n"),
		Origin: OriginAPI,
	}, nil
}

func formatTrack(track bili.SubtitleTrack, lines []bili.SubtitleLine) string {
	var builder strings.Builder
	for _, line := range lines {
		content := strings.TrimSpace(line.Content)
		if content == "" {
			continue
		}
		fmt.Fprintf(&builder, "[%.1f] %s\n", line.From, content)
	}
	body := strings.TrimRight(builder.String(), "\n")
	if body == "" {
		return ""
	}
	label := strings.TrimSpace(track.Label)
	if label == "" {
		label = track.Language
	}
	return fmt.Sprintf("=== %s (%s) ===\n%s", label, track.Language, body)
}
