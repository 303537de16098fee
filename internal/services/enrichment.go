package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/scraper"
	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/normalization"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/httpx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

// maxThemes bounds the content themes kept per profile.
const maxThemes = 5

type EnrichmentConfig struct {
	// BatchSize is the number of posts pulled per profile.
	BatchSize int
	// StaleAfter is the age at which a profile's content is pulled again.
	StaleAfter time.Duration
	Workers    int
	// ProfilesPerRun bounds one RefreshStale pass.
	ProfilesPerRun int
}

type EnrichmentSummary struct {
	Profiles int
	Updated  int
	Missing  int
	Failed   int
}

// EnrichmentService derives niche and brand signals from scraped posts. It
// runs offline and never on the search path.
type EnrichmentService interface {
	RefreshStale(ctx context.Context) (*EnrichmentSummary, error)
	RefreshProfile(ctx context.Context, p *types.CandidateProfile, matcher BrandMatcher) error
}

type enrichmentService struct {
	log      *logger.Logger
	metrics  *observability.Metrics
	scraper  scraper.Client
	profiles repos.CandidateProfileRepo
	units    repos.ContentUnitRepo
	brands   BrandService
	cfg      EnrichmentConfig
	now      func() time.Time
}

func NewEnrichmentService(
	log *logger.Logger,
	metrics *observability.Metrics,
	sc scraper.Client,
	profiles repos.CandidateProfileRepo,
	units repos.ContentUnitRepo,
	brands BrandService,
	cfg EnrichmentConfig,
) EnrichmentService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 30
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 7 * 24 * time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.ProfilesPerRun <= 0 {
		cfg.ProfilesPerRun = 50
	}
	return &enrichmentService{
		log:      log.With("service", "EnrichmentService"),
		metrics:  metrics,
		scraper:  sc,
		profiles: profiles,
		units:    units,
		brands:   brands,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *enrichmentService) RefreshStale(ctx context.Context) (*EnrichmentSummary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	stale, err := s.profiles.ListContentStale(dbc, s.now().Add(-s.cfg.StaleAfter), s.cfg.ProfilesPerRun)
	if err != nil {
		return nil, fmt.Errorf("list stale profiles: %w", err)
	}
	sum := &EnrichmentSummary{Profiles: len(stale)}
	if len(stale) == 0 {
		return sum, nil
	}
	matcher, err := s.brands.Matcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("load brand matcher: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, p := range stale {
		p := p
		g.Go(func() error {
			err := s.RefreshProfile(gctx, p, matcher)
			outcome := "ok"
			switch {
			case err == nil:
			case httpx.StatusCode(err) == http.StatusNotFound:
				outcome = "missing"
			default:
				outcome = "failed"
			}
			s.metrics.EnrichmentResult(outcome)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case "ok":
				sum.Updated++
			case "missing":
				sum.Missing++
				if merr := s.profiles.MarkInactive(dbctx.Context{Ctx: gctx}, p.Platform, p.Username); merr != nil {
					s.log.Warn("Failed to mark profile inactive", "profile", p.Key(), "error", merr)
				}
			default:
				sum.Failed++
				s.log.Warn("Profile enrichment failed", "profile", p.Key(), "error", err)
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	s.log.Info("Enrichment pass finished", "profiles", sum.Profiles, "updated", sum.Updated, "missing", sum.Missing, "failed", sum.Failed)
	return sum, nil
}

func (s *enrichmentService) RefreshProfile(ctx context.Context, p *types.CandidateProfile, matcher BrandMatcher) error {
	units, err := s.scraper.FetchPosts(ctx, p.Platform, p.Username, s.cfg.BatchSize)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.units.ReplaceForProfile(dbc, p.ID, units); err != nil {
		return fmt.Errorf("store content units: %w", err)
	}
	sig := DeriveSignals(units, matcher)
	if err := s.profiles.UpdateSignals(dbc, p.ID, sig, s.now()); err != nil {
		return fmt.Errorf("store signals: %w", err)
	}
	return nil
}

// DeriveSignals aggregates posts into profile signals. Each post counts a
// hashtag or brand at most once. The niche is the most frequent non-brand
// hashtag; its confidence is the share of posts carrying it.
func DeriveSignals(units []types.ContentUnit, matcher BrandMatcher) types.ProfileSignals {
	var sig types.ProfileSignals
	if len(units) == 0 {
		return sig
	}
	brandPosts := map[string]int{}
	themePosts := map[string]int{}
	sponsored := 0
	for _, u := range units {
		if u.IsSponsored {
			sponsored++
		}
		seenBrand := map[string]struct{}{}
		seenTheme := map[string]struct{}{}
		mark := func(tag string, theme bool) {
			if b := matcher.Match(tag); b != "" {
				if _, ok := seenBrand[b]; !ok {
					seenBrand[b] = struct{}{}
					brandPosts[b]++
				}
				return
			}
			if !theme {
				return
			}
			k := normalization.BrandKey(tag)
			if k == "" {
				return
			}
			if _, ok := seenTheme[k]; !ok {
				seenTheme[k] = struct{}{}
				themePosts[k]++
			}
		}
		for _, h := range u.Hashtags.Data() {
			mark(h, true)
		}
		for _, m := range u.Mentions.Data() {
			mark(m, false)
		}
		for _, tok := range normalization.Tokens(u.Caption) {
			mark(tok, false)
		}
	}

	sig.SponsoredRatio = float64(sponsored) / float64(len(units))
	sig.BrandMentions = sortedKeys(brandPosts)
	themes := sortedKeys(themePosts)
	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	sig.ContentThemes = themes
	if len(themes) > 0 {
		sig.DetectedNiche = themes[0]
		sig.NicheConfidence = float64(themePosts[themes[0]]) / float64(len(units))
	}
	return sig
}
