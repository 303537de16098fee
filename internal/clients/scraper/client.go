// Package scraper fetches recent posts for a profile from the content-scraping provider.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/normalization"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/httpx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type Client interface {
	// FetchPosts returns at most limit of the profile's most recent posts.
	FetchPosts(ctx context.Context, platform, username string, limit int) ([]types.ContentUnit, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing SCRAPER_BASE_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &client{
		log:        log.With("client", "ScraperClient"),
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}, nil
}

type postPayload struct {
	ID        string     `json:"id"`
	Caption   string     `json:"caption"`
	Hashtags  []string   `json:"hashtags"`
	Mentions  []string   `json:"mentions"`
	Sponsored bool       `json:"sponsored"`
	Likes     int64      `json:"likes"`
	Comments  int64      `json:"comments"`
	Views     int64      `json:"views"`
	PostedAt  *time.Time `json:"posted_at"`
}

type postsResponse struct {
	Posts []postPayload `json:"posts"`
}

func (c *client) FetchPosts(ctx context.Context, platform, username string, limit int) ([]types.ContentUnit, error) {
	if limit <= 0 {
		limit = 30
	}
	path := "/v1/posts/" + url.PathEscape(types.NormalizePlatform(platform)) + "/" + url.PathEscape(types.NormalizeUsername(username))
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var raw []byte
	var err error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		raw, err = c.getOnce(ctx, path+"?"+q.Encode())
		if err == nil || !httpx.IsRetryableError(err) || attempt > c.maxRetries {
			break
		}
		sleepFor := httpx.JitterSleep(httpx.Backoff(attempt, time.Second, 10*time.Second, err))
		c.log.Warn("Scraper request retrying", "path", path, "attempt", attempt, "sleep", sleepFor.String(), "error", err)
		if sErr := httpx.Sleep(ctx, sleepFor); sErr != nil {
			return nil, sErr
		}
	}
	if err != nil {
		return nil, err
	}

	var body postsResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("scraper decode: %w", err)
	}
	out := make([]types.ContentUnit, 0, len(body.Posts))
	for _, p := range body.Posts {
		if strings.TrimSpace(p.ID) == "" {
			continue
		}
		out = append(out, types.ContentUnit{
			ExternalID:  strings.TrimSpace(p.ID),
			Caption:     p.Caption,
			Hashtags:    datatypes.NewJSONType(cleanTags(p.Hashtags, "#")),
			Mentions:    datatypes.NewJSONType(cleanTags(p.Mentions, "@")),
			IsSponsored: p.Sponsored,
			Likes:       p.Likes,
			Comments:    p.Comments,
			Views:       p.Views,
			PostedAt:    p.PostedAt,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func cleanTags(tags []string, sigil string) []string {
	trimmed := make([]string, 0, len(tags))
	for _, t := range tags {
		trimmed = append(trimmed, strings.TrimPrefix(strings.TrimSpace(t), sigil))
	}
	return normalization.ParseInputList(trimmed)
}

func (c *client) getOnce(ctx context.Context, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.StatusError{
			Service:    "scraper",
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: httpx.RetryAfterHeader(resp),
		}
	}
	return raw, nil
}
