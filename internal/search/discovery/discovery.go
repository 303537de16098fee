// Package discovery turns a structured query into resolved candidate profiles:
// one provider search, then a bounded, rate-limited fan-out of detail fetches
// through the candidate cache.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/provider"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/httpx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/candidatecache"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/searcherr"
)

const op = "discovery.Discover"

type Cache interface {
	GetOrFetch(ctx context.Context, platform, username string, fetch candidatecache.FetchFunc) (*types.CandidateProfile, error)
	Lookup(ctx context.Context, platform, username string) (*types.CandidateProfile, error)
}

// AuditSink receives one record per external call attempt.
type AuditSink interface {
	Record(ctx context.Context, rec *types.AuditRecord) error
}

type Config struct {
	Workers     int
	RatePerSec  float64
	Burst       int
	Oversample  float64
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// SecondRound allows one more, larger search when too few candidates resolved.
	SecondRound   bool
	MaxCandidates int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 5
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Oversample < 1 {
		c.Oversample = 3
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 300
	}
	return c
}

type Discoverer struct {
	log      *logger.Logger
	metrics  *observability.Metrics
	provider provider.Client
	cache    Cache
	audit    AuditSink
	limiter  *rate.Limiter
	cfg      Config
}

func New(log *logger.Logger, metrics *observability.Metrics, p provider.Client, cache Cache, audit AuditSink, cfg Config) *Discoverer {
	cfg = cfg.withDefaults()
	return &Discoverer{
		log:      log.With("component", "CandidateDiscovery"),
		metrics:  metrics,
		provider: p,
		cache:    cache,
		audit:    audit,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		cfg:      cfg,
	}
}

// Batch is what a discovery produced. Partial is set when at least one
// username could not be resolved.
type Batch struct {
	Profiles   []*types.CandidateProfile
	Requested  int
	Unresolved int
	Skipped    int
	Rounds     int
	Partial    bool
}

// Discover searches the provider for up to limit*oversample usernames and
// resolves them through the cache. Only a failed search is an error; failed
// detail fetches leave the candidate unresolved.
func (d *Discoverer) Discover(ctx context.Context, q *types.StructuredQuery, limit int) (*Batch, error) {
	if q == nil {
		return nil, searcherr.Validation(op, fmt.Errorf("nil query"))
	}
	if limit <= 0 {
		limit = q.TargetCount
	}
	platform := types.NormalizePlatform(q.Platform)
	want := d.searchSize(limit)
	params := provider.SearchParams{
		Keyword:  SearchKeyword(q),
		Platform: platform,
		Country:  q.TargetCountry,
		Limit:    want,
	}

	usernames, err := d.search(ctx, params)
	if err != nil {
		return nil, searcherr.Provider(op, err)
	}
	batch := &Batch{Rounds: 1}
	seen := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		seen[u] = struct{}{}
	}
	if err := d.resolveInto(ctx, batch, platform, usernames); err != nil {
		return nil, err
	}

	if d.cfg.SecondRound && len(batch.Profiles) < limit && len(usernames) >= want && want < d.cfg.MaxCandidates {
		params.Limit = minInt(want*2, d.cfg.MaxCandidates)
		more, err := d.search(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			d.log.Warn("Second discovery round failed, keeping first round", "error", err)
		} else {
			fresh := make([]string, 0, len(more))
			for _, u := range more {
				if _, dup := seen[u]; dup {
					continue
				}
				seen[u] = struct{}{}
				fresh = append(fresh, u)
			}
			if len(fresh) > 0 {
				batch.Rounds++
				if err := d.resolveInto(ctx, batch, platform, fresh); err != nil {
					return nil, err
				}
			}
		}
	}

	batch.Partial = batch.Unresolved > 0
	d.log.Info("Discovery finished",
		"requested", batch.Requested,
		"resolved", len(batch.Profiles),
		"unresolved", batch.Unresolved,
		"skipped_inactive", batch.Skipped,
		"rounds", batch.Rounds,
	)
	return batch, nil
}

func (d *Discoverer) searchSize(limit int) int {
	n := int(math.Ceil(float64(limit) * d.cfg.Oversample))
	if n < limit {
		n = limit
	}
	return minInt(n, d.cfg.MaxCandidates)
}

// SearchKeyword picks the provider search term: niche, else topics, else brand.
func SearchKeyword(q *types.StructuredQuery) string {
	if kw := strings.TrimSpace(q.Niche); kw != "" {
		return kw
	}
	if len(q.Topics) > 0 {
		return strings.Join(q.Topics, " ")
	}
	return strings.TrimSpace(q.BrandName)
}

type outcome struct {
	profile *types.CandidateProfile
	skipped bool
	err     error
}

func (d *Discoverer) resolveInto(ctx context.Context, batch *Batch, platform string, usernames []string) error {
	results := make([]outcome, len(usernames))
	g := new(errgroup.Group)
	g.SetLimit(d.cfg.Workers)
	for i, username := range usernames {
		i, username := i, username
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i].err = ctx.Err()
				return nil
			}
			results[i] = d.resolveOne(ctx, platform, username)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	var storeErr error
	for i, r := range results {
		switch {
		case r.skipped:
			batch.Skipped++
		case r.err != nil:
			if isStoreError(r.err) && storeErr == nil {
				storeErr = r.err
			}
			batch.Requested++
			batch.Unresolved++
			d.log.Debug("Candidate unresolved", "platform", platform, "username", usernames[i], "error", r.err)
		default:
			batch.Requested++
			batch.Profiles = append(batch.Profiles, r.profile)
		}
	}
	if storeErr != nil {
		return searcherr.Persistence(op, storeErr)
	}
	return nil
}

func (d *Discoverer) resolveOne(ctx context.Context, platform, username string) outcome {
	known, err := d.cache.Lookup(ctx, platform, username)
	if err != nil {
		return outcome{err: err}
	}
	if known != nil && !known.ProfileActive {
		return outcome{skipped: true}
	}
	p, err := d.cache.GetOrFetch(ctx, platform, username, func(fctx context.Context) (*types.CandidateProfile, error) {
		return d.detail(fctx, platform, username)
	})
	if err != nil {
		return outcome{err: err}
	}
	return outcome{profile: p}
}

// isStoreError reports whether err came from the profile store rather than
// the provider.
func isStoreError(err error) bool {
	if errors.Is(err, candidatecache.ErrNotFound) || searcherr.Is(err, searcherr.KindProvider) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (d *Discoverer) search(ctx context.Context, params provider.SearchParams) ([]string, error) {
	var usernames []string
	err := d.withRetry(ctx, provider.EndpointSearch, params, func(ctx context.Context) (int, error) {
		res, err := d.provider.Search(ctx, params)
		if err != nil {
			return provider.PayloadBytes(err), err
		}
		usernames = res.Usernames
		return res.Bytes, nil
	})
	if params.Limit > 0 && len(usernames) > params.Limit {
		d.log.Warn("Provider search exceeded limit, truncating", "limit", params.Limit, "returned", len(usernames))
		usernames = usernames[:params.Limit]
	}
	return usernames, err
}

func (d *Discoverer) detail(ctx context.Context, platform, username string) (*types.CandidateProfile, error) {
	var profile *types.CandidateProfile
	params := map[string]string{"platform": platform, "username": username}
	err := d.withRetry(ctx, provider.EndpointDetail, params, func(ctx context.Context) (int, error) {
		res, err := d.provider.Detail(ctx, platform, username)
		if err != nil {
			return provider.PayloadBytes(err), err
		}
		profile = res.Profile
		return res.Bytes, nil
	})
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", candidatecache.ErrNotFound, err)
		}
		return nil, searcherr.Provider("discovery.detail", err)
	}
	return profile, nil
}

// withRetry runs call up to MaxAttempts times, waiting on the shared rate
// limiter before each attempt and backing off exponentially after transient
// failures. Every attempt is audited.
func (d *Discoverer) withRetry(ctx context.Context, endpoint string, params any, call func(ctx context.Context) (int, error)) error {
	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if werr := d.limiter.Wait(ctx); werr != nil {
			if err == nil {
				err = werr
			}
			return err
		}
		start := time.Now()
		var size int
		size, err = call(ctx)
		d.record(ctx, endpoint, params, attempt, time.Since(start), size, err)
		if err == nil {
			return nil
		}
		if !httpx.IsRetryableError(err) || ctx.Err() != nil || attempt == d.cfg.MaxAttempts {
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.Backoff(attempt, d.cfg.BaseBackoff, d.cfg.MaxBackoff, err))
		d.log.Warn("Provider call retrying",
			"endpoint", endpoint,
			"attempt", attempt,
			"max_attempts", d.cfg.MaxAttempts,
			"sleep", sleepFor.String(),
			"error", err,
		)
		if serr := httpx.Sleep(ctx, sleepFor); serr != nil {
			return err
		}
	}
	return err
}
