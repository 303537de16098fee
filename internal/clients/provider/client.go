// Package provider is the HTTP client for the audience-analytics provider.
// Each method performs exactly one attempt; retry and audit live with the caller.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/httpx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

const (
	Name           = "audience_provider"
	EndpointSearch = "search"
	EndpointDetail = "detail"
)

var ErrNotFound = errors.New("provider: profile not found")

type Client interface {
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
	Detail(ctx context.Context, platform, username string) (*DetailResult, error)
}

type SearchParams struct {
	Keyword  string `json:"keyword"`
	Platform string `json:"platform"`
	Country  string `json:"country,omitempty"`
	Limit    int    `json:"limit"`
}

type SearchResult struct {
	Usernames []string
	Bytes     int
}

type DetailResult struct {
	Profile *types.CandidateProfile
	Bytes   int
}

// CallError carries the payload size of a failed attempt so it can be audited.
type CallError struct {
	Err   error
	Bytes int
}

func (e *CallError) Error() string { return e.Err.Error() }
func (e *CallError) Unwrap() error { return e.Err }

// PayloadBytes returns the response size recorded on err, or 0.
func PayloadBytes(err error) int {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Bytes
	}
	return 0
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type client struct {
	log        *logger.Logger
	metrics    *observability.Metrics
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, metrics *observability.Metrics, cfg Config) (Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing PROVIDER_BASE_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &client{
		log:        log.With("client", "ProviderClient"),
		metrics:    metrics,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *client) get(ctx context.Context, endpoint, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProviderCall(endpoint, "error", time.Since(start))
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	c.metrics.ObserveProviderCall(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
	if readErr != nil {
		return nil, &CallError{Err: readErr, Bytes: len(raw)}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &CallError{Err: fmt.Errorf("%w: %s", ErrNotFound, path), Bytes: len(raw)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CallError{
			Err: &httpx.StatusError{
				Service:    Name,
				StatusCode: resp.StatusCode,
				Body:       string(raw),
				RetryAfter: httpx.RetryAfterHeader(resp),
			},
			Bytes: len(raw),
		}
	}
	return raw, nil
}

type searchResponse struct {
	Results []struct {
		Username string `json:"username"`
	} `json:"results"`
}

func (c *client) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	q := url.Values{}
	q.Set("keyword", params.Keyword)
	q.Set("platform", types.NormalizePlatform(params.Platform))
	if params.Country != "" {
		q.Set("country", params.Country)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	raw, err := c.get(ctx, EndpointSearch, "/v1/search", q)
	if err != nil {
		return nil, err
	}
	var body searchResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &CallError{Err: fmt.Errorf("provider search decode: %w", err), Bytes: len(raw)}
	}
	out := &SearchResult{Bytes: len(raw), Usernames: make([]string, 0, len(body.Results))}
	seen := map[string]struct{}{}
	for _, r := range body.Results {
		u := types.NormalizeUsername(r.Username)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out.Usernames = append(out.Usernames, u)
		if params.Limit > 0 && len(out.Usernames) == params.Limit {
			break
		}
	}
	return out, nil
}

func (c *client) Detail(ctx context.Context, platform, username string) (*DetailResult, error) {
	platform = types.NormalizePlatform(platform)
	username = types.NormalizeUsername(username)
	path := "/v1/profiles/" + url.PathEscape(platform) + "/" + url.PathEscape(username)
	raw, err := c.get(ctx, EndpointDetail, path, nil)
	if err != nil {
		return nil, err
	}
	var body profilePayload
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &CallError{Err: fmt.Errorf("provider detail decode: %w", err), Bytes: len(raw)}
	}
	p := body.toProfile(platform, username)
	return &DetailResult{Profile: p, Bytes: len(raw)}, nil
}
