package bili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type playerData struct {
	Subtitle struct {
		Subtitles []struct {
			Lan         string `json:"lan"`
			LanDoc      string `json:"lan_doc"`
			SubtitleURL string `json:"subtitle_url"`
		} `json:"subtitles"`
	} `json:"subtitle"`
}

// GetSubtitleListing returns the native subtitle tracks for a video. An empty
// slice means the platform has no subtitles for it (or the caller lacks the
// credentials the endpoint wants); that is not an error.
func (c *Client) GetSubtitleListing(ctx context.Context, bvid string, cid int64) ([]SubtitleTrack, error) {
	bvid = strings.TrimSpace(bvid)
	if bvid == "" || cid <= 0 {
		return nil, errors.New("bvid and cid required for subtitle listing")
	}
	params := url.Values{}
	params.Set("bvid", bvid)
	params.Set("cid", strconv.FormatInt(cid, 10))

	var data playerData
	if err := c.getJSON(ctx, "/x/player/v2", params, &data); err != nil {
		return nil, fmt.Errorf("subtitle listing %s: %w", bvid, err)
	}

	tracks := make([]SubtitleTrack, 0, len(data.Subtitle.Subtitles))
	for _, entry := range data.Subtitle.Subtitles {
		trackURL := strings.TrimSpace(entry.SubtitleURL)
		if trackURL == "" {
			continue
		}
		if strings.HasPrefix(trackURL, "//") {
			trackURL = "https:" + trackURL
		}
		tracks = append(tracks, SubtitleTrack{
			Language: entry.Lan,
			Label:    entry.LanDoc,
			URL:      trackURL,
		})
	}
	return tracks, nil
}

type subtitleDocument struct {
	Body []SubtitleLine `json:"body"`
}

// FetchSubtitle downloads one subtitle document and returns its cues.
func (c *Client) FetchSubtitle(ctx context.Context, subtitleURL string) ([]SubtitleLine, error) {
	subtitleURL = strings.TrimSpace(subtitleURL)
	if subtitleURL == "" {
		return nil, errors.New("subtitle url required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subtitleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (bilitext)")
	req.Header.Set("Referer", "https://www.bilibili.com/")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subtitle fetch returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var doc subtitleDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode subtitle document: %w", err)
	}
	return doc.Body, nil
}
