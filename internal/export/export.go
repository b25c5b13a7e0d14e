// Package export batches transcript acquisition over a user's whole upload
// list. One video failing never stops the batch; a missing login that would
// fail every video identically does.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bilitext/internal/bili"
	"bilitext/internal/logging"
	"bilitext/internal/pipeline"
	"bilitext/internal/resolver"
	"bilitext/internal/services"
	"bilitext/internal/textutil"
)

// Progress is invoked after each video finishes, successfully or not.
type Progress func(done, total int, label string)

// Options configures one batch run.
type Options struct {
	// Limit caps how many videos are processed. Zero processes none (the
	// total is still recorded); negative means no limit.
	Limit int
	// IncludeDescription adds the video description to each header.
	IncludeDescription bool
	// IncludeMetaInfo adds view counts, duration, and upload data to each
	// header.
	IncludeMetaInfo bool
	// CookieJar is an optional Netscape cookie file for downloader-backed
	// sources.
	CookieJar string
	Progress  Progress
}

// FailedVideo records one video the batch could not produce text for.
type FailedVideo struct {
	BVID  string `json:"bvid"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// Stats summarizes a batch run.
type Stats struct {
	RunID     string
	UID       int64
	Total     int
	Processed int
	// Counts buckets successful videos by transcript origin.
	Counts map[resolver.Origin]int
	// CorrectionFailures counts ASR transcripts returned raw because the
	// correction pass failed. These videos still succeeded.
	CorrectionFailures int
	Failed             []FailedVideo
	// TokenEstimate approximates the LLM token cost of the combined output
	// as word count times 1.5.
	TokenEstimate int
	Elapsed       time.Duration
}

// Succeeded returns the number of videos that produced text.
func (s *Stats) Succeeded() int {
	total := 0
	for _, count := range s.Counts {
		total += count
	}
	return total
}

// Orchestrator runs batch exports against the platform client and the
// transcript pipeline.
type Orchestrator struct {
	client *bili.Client
	coord  *pipeline.Coordinator
	logger *slog.Logger
}

// New creates a batch orchestrator.
func New(client *bili.Client, coord *pipeline.Coordinator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		client: client,
		coord:  coord,
		logger: logging.NewComponentLogger(logger, "export"),
	}
}

// ExportAll fetches transcripts for every video of a user and returns the
// combined text plus run statistics. An authentication failure aborts the run
// because it would recur on every remaining video; anything else marks the
// one video failed and continues.
func (o *Orchestrator) ExportAll(ctx context.Context, uid int64, opts Options) (string, *Stats, error) {
	started := time.Now()
	stats := &Stats{
		RunID:  uuid.NewString(),
		UID:    uid,
		Counts: make(map[resolver.Origin]int),
	}

	videos, err := o.client.GetUserVideos(ctx, uid)
	if err != nil {
		return "", nil, services.Wrap(services.ErrExternalTool, "export", "list videos", fmt.Sprintf("uid=%d", uid), err)
	}
	stats.Total = len(videos)

	selected := videos
	if opts.Limit >= 0 && opts.Limit < len(videos) {
		selected = videos[:opts.Limit]
	}

	o.logger.Info("batch export started",
		logging.String("run_id", stats.RunID),
		logging.Int64("uid", uid),
		logging.Int("total", stats.Total),
		logging.Int("selected", len(selected)))

	var blocks []string
	for i, listed := range selected {
		block := o.exportOne(ctx, &listed, opts, stats)
		if block.abort != nil {
			return "", stats, block.abort
		}
		blocks = append(blocks, block.text)
		stats.Processed++
		if opts.Progress != nil {
			opts.Progress(i+1, len(selected), listed.Title)
		}
	}

	combined := strings.Join(blocks, "\n\n")
	stats.TokenEstimate = estimateTokens(combined)
	stats.Elapsed = time.Since(started)

	o.logger.Info("batch export finished",
		logging.String("run_id", stats.RunID),
		logging.Int("succeeded", stats.Succeeded()),
		logging.Int("failed", len(stats.Failed)),
		logging.Duration("elapsed", stats.Elapsed))
	return combined, stats, nil
}

type exportedBlock struct {
	text  string
	abort error
}

func (o *Orchestrator) exportOne(ctx context.Context, listed *bili.VideoInfo, opts Options, stats *Stats) exportedBlock {
	// The user listing lacks cid, full description, and the pay-wall flag, so
	// each video gets a full metadata fetch first.
	video, err := o.client.GetVideoInfo(ctx, listed.BVID)
	if err != nil {
		o.recordFailure(stats, listed.BVID, listed.Title, err)
		return exportedBlock{text: placeholderBlock(listed, opts, err)}
	}

	result, err := o.coord.Transcript(ctx, video, opts.CookieJar)
	if err != nil {
		if errors.Is(err, services.ErrAuthRequired) {
			o.logger.Error("authentication required, aborting batch",
				logging.String("bvid", video.BVID),
				logging.Error(err))
			return exportedBlock{abort: err}
		}
		o.recordFailure(stats, video.BVID, video.Title, err)
		return exportedBlock{text: placeholderBlock(video, opts, err)}
	}

	stats.Counts[result.Origin]++
	if result.CorrectionFailed {
		stats.CorrectionFailures++
	}

	body := textutil.RemoveTimestamps(result.Text)
	return exportedBlock{text: Header(video, opts.IncludeDescription, opts.IncludeMetaInfo) + "\n\n" + body}
}

func (o *Orchestrator) recordFailure(stats *Stats, bvid, title string, err error) {
	o.logger.Warn("video failed, continuing batch",
		logging.String("bvid", bvid),
		logging.Error(err))
	stats.Failed = append(stats.Failed, FailedVideo{
		BVID:  bvid,
		Title: title,
		Error: err.Error(),
	})
}

// Header renders the per-video header block: title, optional description,
// optional metadata. Shared with the single-video text command.
func Header(video *bili.VideoInfo, includeDescription, includeMetaInfo bool) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "# %s", video.Title)

	if includeDescription {
		if desc := strings.TrimSpace(video.Description); desc != "" {
			builder.WriteString("\n\n")
			builder.WriteString(desc)
		}
	}
	if includeMetaInfo {
		builder.WriteString("\n\n")
		fmt.Fprintf(&builder, "Uploader: %s\n", video.OwnerName)
		fmt.Fprintf(&builder, "Upload time: %s\n", video.UploadTime)
		fmt.Fprintf(&builder, "Duration: %s\n", textutil.FormatDuration(video.Duration))
		fmt.Fprintf(&builder, "Views: %s\n", textutil.FormatCount(video.ViewCount))
		fmt.Fprintf(&builder, "Likes: %s\n", textutil.FormatCount(video.LikeCount))
		fmt.Fprintf(&builder, "Comments: %s", textutil.FormatCount(video.CommentCount))
	}
	return builder.String()
}

// placeholderBlock keeps a failed video visible in the combined output.
func placeholderBlock(video *bili.VideoInfo, opts Options, cause error) string {
	header := Header(video, opts.IncludeDescription, opts.IncludeMetaInfo)
	return fmt.Sprintf("%s\n\n[transcript unavailable: %s]", header, cause.Error())
}

// estimateTokens approximates LLM token usage at 1.5 tokens per word.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) * 1.5)
}
