package bili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// VideoInfo describes one video as reported by the platform. It is read-only
// from the pipeline's perspective and only used for header formatting and
// pay-walled content detection.
type VideoInfo struct {
	BVID          string
	AID           int64
	CID           int64
	Title         string
	Description   string
	Duration      int
	ViewCount     int64
	LikeCount     int64
	CoinCount     int64
	FavoriteCount int64
	ShareCount    int64
	CommentCount  int64
	UploadTime    string
	OwnerName     string
	OwnerMID      int64
	// ChargingExclusive marks pay-walled content that anonymous downloads can
	// only retrieve partially.
	ChargingExclusive bool
	ChargingLevel     string
}

// SubtitleTrack is one entry from the native subtitle listing.
type SubtitleTrack struct {
	Language string
	Label    string
	URL      string
}

// SubtitleLine is one cue of a fetched subtitle document.
type SubtitleLine struct {
	From    float64 `json:"from"`
	To      float64 `json:"to"`
	Content string  `json:"content"`
}

// Client provides access to the Bilibili web API.
type Client struct {
	baseURL    string
	pageSize   int
	cookies    map[string]string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPageSize overrides the user video listing page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a Bilibili API client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("bilibili base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   30,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SetCookies attaches named cookies (SESSDATA and friends) to subsequent
// requests. A nil map clears them.
func (c *Client) SetCookies(cookies map[string]string) {
	c.cookies = cookies
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, target any) error {
	parsed, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return fmt.Errorf("parse api url: %w", err)
	}
	parsed.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (bilitext)")
	req.Header.Set("Referer", "https://www.bilibili.com/")
	if len(c.cookies) > 0 {
		req.Header.Set("Cookie", cookieHeader(c.cookies))
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bilibili api returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode api response: %w", err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("bilibili api error %d: %s", envelope.Code, strings.TrimSpace(envelope.Message))
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("decode api data: %w", err)
	}
	return nil
}

func cookieHeader(cookies map[string]string) string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+cookies[name])
	}
	return strings.Join(pairs, "; ")
}

type videoViewData struct {
	BVID     string `json:"bvid"`
	AID      int64  `json:"aid"`
	CID      int64  `json:"cid"`
	Title    string `json:"title"`
	Desc     string `json:"desc"`
	Duration int    `json:"duration"`
	Pubdate  int64  `json:"pubdate"`
	Owner    struct {
		MID  int64  `json:"mid"`
		Name string `json:"name"`
	} `json:"owner"`
	Stat struct {
		View     int64 `json:"view"`
		Like     int64 `json:"like"`
		Coin     int64 `json:"coin"`
		Favorite int64 `json:"favorite"`
		Share    int64 `json:"share"`
		Reply    int64 `json:"reply"`
	} `json:"stat"`
	IsUpowerExclusive bool `json:"is_upower_exclusive"`
	UpowerLevel       struct {
		Title string `json:"title"`
	} `json:"upower_level"`
}

// GetVideoInfo fetches metadata for a video identified by BVID or URL.
func (c *Client) GetVideoInfo(ctx context.Context, identifier string) (*VideoInfo, error) {
	bvid, err := ExtractBVID(identifier)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("bvid", bvid)

	var data videoViewData
	if err := c.getJSON(ctx, "/x/web-interface/view", params, &data); err != nil {
		return nil, fmt.Errorf("video info %s: %w", bvid, err)
	}

	return &VideoInfo{
		BVID:              data.BVID,
		AID:               data.AID,
		CID:               data.CID,
		Title:             data.Title,
		Description:       data.Desc,
		Duration:          data.Duration,
		ViewCount:         data.Stat.View,
		LikeCount:         data.Stat.Like,
		CoinCount:         data.Stat.Coin,
		FavoriteCount:     data.Stat.Favorite,
		ShareCount:        data.Stat.Share,
		CommentCount:      data.Stat.Reply,
		UploadTime:        formatTimestamp(data.Pubdate),
		OwnerName:         data.Owner.Name,
		OwnerMID:          data.Owner.MID,
		ChargingExclusive: data.IsUpowerExclusive,
		ChargingLevel:     data.UpowerLevel.Title,
	}, nil
}

type userVideosData struct {
	List struct {
		VList []struct {
			BVID        string `json:"bvid"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Length      string `json:"length"`
			Play        int64  `json:"play"`
			Comment     int64  `json:"comment"`
			Created     int64  `json:"created"`
			Author      string `json:"author"`
		} `json:"vlist"`
	} `json:"list"`
	Page struct {
		Count int `json:"count"`
	} `json:"page"`
}

// GetUserVideos fetches the full video list for a user, newest first,
// following pagination until the reported total is reached.
func (c *Client) GetUserVideos(ctx context.Context, uid int64) ([]VideoInfo, error) {
	if uid <= 0 {
		return nil, errors.New("uid must be positive")
	}

	var videos []VideoInfo
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("mid", strconv.FormatInt(uid, 10))
		params.Set("pn", strconv.Itoa(page))
		params.Set("ps", strconv.Itoa(c.pageSize))

		var data userVideosData
		if err := c.getJSON(ctx, "/x/space/arc/search", params, &data); err != nil {
			return nil, fmt.Errorf("user videos uid=%d page=%d: %w", uid, page, err)
		}
		if len(data.List.VList) == 0 {
			break
		}
		for _, item := range data.List.VList {
			videos = append(videos, VideoInfo{
				BVID:         item.BVID,
				Title:        item.Title,
				Description:  item.Description,
				Duration:     parseDuration(item.Length),
				ViewCount:    item.Play,
				CommentCount: item.Comment,
				UploadTime:   formatTimestamp(item.Created),
				OwnerName:    item.Author,
				OwnerMID:     uid,
			})
		}
		if len(videos) >= data.Page.Count {
			break
		}
	}
	return videos, nil
}

// parseDuration converts the listing's "MM:SS" (or "HH:MM:SS") duration
// string to seconds. Malformed values yield 0.
func parseDuration(value string) int {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func formatTimestamp(unix int64) string {
	if unix <= 0 {
		return "Unknown"
	}
	return time.Unix(unix, 0).Format("2006-01-02 15:04:05")
}
