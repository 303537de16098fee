// Package candidatecache serves candidate profiles from the profile store and
// coordinates refetches so that one key has at most one fetch in flight.
package candidatecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

// ErrNotFound is returned by a FetchFunc when the provider no longer knows the handle.
var ErrNotFound = errors.New("candidate not found at provider")

// Store is the durable profile table. GetByKey returns (nil, nil) on a miss.
type Store interface {
	GetByKey(ctx context.Context, platform, username string) (*types.CandidateProfile, error)
	Upsert(ctx context.Context, p *types.CandidateProfile) (*types.CandidateProfile, error)
	MarkInactive(ctx context.Context, platform, username string) error
}

// Locker extends single-flight across processes. ok=false means another
// process holds the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type FetchFunc func(ctx context.Context) (*types.CandidateProfile, error)

type Config struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	LockTTL      time.Duration
	// LockWait is how long a caller that lost the distributed lock polls the
	// store before fetching anyway.
	LockWait     time.Duration
	PollInterval time.Duration
}

type Cache struct {
	log     *logger.Logger
	metrics *observability.Metrics
	store   Store
	locker  Locker
	cfg     Config
	group   singleflight.Group
	now     func() time.Time
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLocker(l Locker) Option {
	return func(c *Cache) { c.locker = l }
}

func New(log *logger.Logger, metrics *observability.Metrics, store Store, cfg Config, opts ...Option) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 2 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.FetchTimeout
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 5 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	c := &Cache{
		log:     log.With("component", "CandidateCache"),
		metrics: metrics,
		store:   store,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) TTL() time.Duration { return c.cfg.TTL }

// Lookup returns the stored row without fetching, fresh or not.
func (c *Cache) Lookup(ctx context.Context, platform, username string) (*types.CandidateProfile, error) {
	return c.store.GetByKey(ctx, types.NormalizePlatform(platform), types.NormalizeUsername(username))
}

// GetOrFetch returns the cached profile when fresh. Otherwise the first caller
// for the key runs fetch and upserts the result; concurrent callers for the
// same key wait for that outcome. The fetch is detached from the caller's
// cancellation so that an abandoned search still leaves a valid cache entry.
func (c *Cache) GetOrFetch(ctx context.Context, platform, username string, fetch FetchFunc) (*types.CandidateProfile, error) {
	platform = types.NormalizePlatform(platform)
	username = types.NormalizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("candidatecache: empty username")
	}
	key := types.ProfileKey(platform, username)

	existing, err := c.store.GetByKey(ctx, platform, username)
	if err != nil {
		return nil, fmt.Errorf("candidatecache: lookup %s: %w", key, err)
	}
	if existing.IsFresh(c.now()) {
		c.metrics.CacheLookup("hit")
		return existing, nil
	}
	if existing == nil {
		c.metrics.CacheLookup("miss")
	} else {
		c.metrics.CacheLookup("stale")
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.refresh(detached, key, platform, username, fetch)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.CacheLookup("shared")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.CandidateProfile), nil
	}
}

func (c *Cache) refresh(ctx context.Context, key, platform, username string, fetch FetchFunc) (*types.CandidateProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	// A flight that finished just before this one started may already have stored it.
	existing, err := c.store.GetByKey(ctx, platform, username)
	if err != nil {
		return nil, fmt.Errorf("candidatecache: lookup %s: %w", key, err)
	}
	if existing.IsFresh(c.now()) {
		return existing, nil
	}

	if c.locker != nil {
		release, ok, lerr := c.locker.Acquire(ctx, "lock:profile:"+key, c.cfg.LockTTL)
		switch {
		case lerr != nil:
			c.log.Warn("Profile lock unavailable, fetching without it", "key", key, "error", lerr)
		case ok:
			defer release()
		default:
			if p := c.awaitPeer(ctx, platform, username); p != nil {
				return p, nil
			}
			c.log.Debug("Peer fetch did not land in time, fetching duplicate", "key", key)
		}
	}

	c.metrics.CacheLookup("fetch")
	p, err := fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) && existing != nil {
			if merr := c.store.MarkInactive(ctx, platform, username); merr != nil {
				c.log.Warn("Failed to mark profile inactive", "key", key, "error", merr)
			} else {
				c.log.Info("Profile no longer resolvable, marked inactive", "key", key)
			}
		}
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("candidatecache: fetch %s returned no profile", key)
	}

	now := c.now()
	p.Platform = platform
	p.Username = username
	p.CachedAt = now
	p.CacheExpiresAt = now.Add(c.cfg.TTL)
	saved, err := c.store.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("candidatecache: upsert %s: %w", key, err)
	}
	return saved, nil
}

func (c *Cache) awaitPeer(ctx context.Context, platform, username string) *types.CandidateProfile {
	deadline := time.NewTimer(c.cfg.LockWait)
	defer deadline.Stop()
	tick := time.NewTicker(c.cfg.PollInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			return nil
		case <-tick.C:
			p, err := c.store.GetByKey(ctx, platform, username)
			if err == nil && p.IsFresh(c.now()) {
				return p
			}
		}
	}
}
