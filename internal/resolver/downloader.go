package resolver

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bilitext/internal/bili"
	"bilitext/internal/logging"
	"bilitext/internal/services"
	"bilitext/internal/services/ytdlp"
)

// subtitleExtensions is the allow-list of subtitle files taken from a
// downloader run. Anything else yt-dlp leaves behind is ignored.
var subtitleExtensions = map[string]bool{
	".srt": true,
	".vtt": true,
}

// Downloader resolves transcripts by asking yt-dlp for the video's subtitle
// files without downloading the media itself.
type Downloader struct {
	service *ytdlp.Service
	logger  *slog.Logger
}

// NewDownloader creates the yt-dlp subtitle resolver.
func NewDownloader(service *ytdlp.Service, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Downloader{
		service: service,
		logger:  logging.NewComponentLogger(logger, "resolver.downloader"),
	}
}

func (r *Downloader) Name() string { return string(OriginDownloader) }

// Resolve downloads subtitle files into the work dir and concatenates them in
// name order. Files left behind by an earlier run are reused without invoking
// the downloader again. Any download failure without a credential surfaces as
// an authentication requirement so the caller can suggest logging in; a
// credentialed download that is still gated falls through to the next source.
func (r *Downloader) Resolve(ctx context.Context, req *Request) (*Artifact, error) {
	if req == nil || req.Video == nil {
		return nil, services.Wrap(services.ErrValidation, "resolver", "downloader", "video info required", nil)
	}

	subsDir := filepath.Join(req.WorkDir, "subs")
	if text, count, err := collectSubtitleFiles(subsDir); err == nil && text != "" {
		r.logger.Debug("reusing downloaded subtitles",
			logging.String("bvid", req.Video.BVID),
			logging.Int("file_count", count))
		return &Artifact{Text: text, Origin: OriginDownloader}, nil
	}

	err := r.service.DownloadSubtitles(ctx, bili.VideoURL(req.Video.BVID), subsDir, req.CookieJar)
	if err != nil {
		if req.CookieJar == "" {
			if errors.Is(err, services.ErrAuthRequired) {
				return nil, err
			}
			return nil, services.Wrap(services.ErrAuthRequired, "resolver", "downloader", "subtitle download failed without credentials", err)
		}
		if errors.Is(err, services.ErrAuthRequired) {
			return nil, services.Wrap(services.ErrNotFound, "resolver", "downloader", err.Error(), nil)
		}
		return nil, services.Wrap(services.ErrNotFound, "resolver", "downloader", "subtitle download failed", err)
	}

	text, count, err := collectSubtitleFiles(subsDir)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "resolver", "downloader", "read subtitle files", err)
	}
	if text == "" {
		return nil, services.Wrap(services.ErrNotFound, "resolver", "downloader", "no subtitle files produced", nil)
	}

	r.logger.Debug("downloaded subtitles resolved",
		logging.String("bvid", req.Video.BVID),
		logging.Int("file_count", count))
	return &Artifact{Text: text, Origin: OriginDownloader}, nil
}

func collectSubtitleFiles(dir string) (string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", 0, nil
		}
		return "", 0, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if subtitleExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var sections []string
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", 0, err
		}
		if content := strings.TrimSpace(string(data)); content != "" {
			sections = append(sections, content)
		}
	}
	return strings.Join(sections, "\n\n"), len(sections), nil
}
