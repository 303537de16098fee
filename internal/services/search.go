package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/ctxutil"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/discovery"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/filter"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/queryparse"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/ranking"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/searcherr"
)

var ErrSearchNotFound = errors.New("search run not found")

type QueryParser interface {
	Parse(ctx context.Context, brief string) (*types.StructuredQuery, error)
}

type CandidateDiscoverer interface {
	Discover(ctx context.Context, q *types.StructuredQuery, limit int) (*discovery.Batch, error)
}

type SearchRequest struct {
	Brief  string `json:"brief"`
	Preset string `json:"preset,omitempty"`
	// Weights overrides the preset for this search only.
	Weights *types.RankingWeights `json:"weights,omitempty"`
}

type SearchOutcome struct {
	Run        *types.SearchRun
	Query      *types.StructuredQuery
	Results    []types.RankedResult
	Rejections []types.Rejection
	Partial    bool
}

type SearchConfig struct {
	// Timeout bounds the whole pipeline; zero means no bound beyond the caller's.
	Timeout           time.Duration
	EngagementCeiling float64
	GrowthCeiling     float64
}

type SearchService interface {
	Run(ctx context.Context, req SearchRequest) (*SearchOutcome, error)
	Get(ctx context.Context, id uuid.UUID) (*types.SearchRun, error)
	Rejections(ctx context.Context, id uuid.UUID) ([]types.Rejection, error)
	Audit(ctx context.Context, id uuid.UUID) ([]*types.AuditRecord, error)
	Recent(ctx context.Context, limit int) ([]*types.SearchRun, error)
}

type searchService struct {
	log        *logger.Logger
	metrics    *observability.Metrics
	parser     QueryParser
	discoverer CandidateDiscoverer
	weights    WeightService
	brands     BrandService
	runs       repos.SearchRunRepo
	audits     repos.AuditRecordRepo
	cfg        SearchConfig
	now        func() time.Time
}

func NewSearchService(
	log *logger.Logger,
	metrics *observability.Metrics,
	parser QueryParser,
	discoverer CandidateDiscoverer,
	weights WeightService,
	brands BrandService,
	runs repos.SearchRunRepo,
	audits repos.AuditRecordRepo,
	cfg SearchConfig,
) SearchService {
	return &searchService{
		log:        log.With("service", "SearchService"),
		metrics:    metrics,
		parser:     parser,
		discoverer: discoverer,
		weights:    weights,
		brands:     brands,
		runs:       runs,
		audits:     audits,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run executes brief -> query -> discovery -> filter -> rank and stores the
// outcome as one immutable SearchRun. A cancelled or timed out search stores
// nothing.
func (s *searchService) Run(ctx context.Context, req SearchRequest) (out *SearchOutcome, err error) {
	const op = "search.Run"
	start := s.now()
	ctx, span := observability.Tracer().Start(ctx, op)
	defer func() {
		s.metrics.ObserveSearch(outcomeLabel(out, err), s.now().Sub(start))
		endSpan(span, err)
	}()

	if strings.TrimSpace(req.Brief) == "" {
		return nil, searcherr.Validation(op, errors.New("brief is required"))
	}
	presetName, weights, err := s.weights.Resolve(ctx, req.Preset, req.Weights)
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	ctx = ctxutil.WithSearchRunID(ctx, runID)
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	span.SetAttributes(attribute.String("search.run_id", runID.String()), attribute.String("search.preset", presetName))
	log := s.log.With("search_run_id", runID.String())

	q, err := s.parse(ctx, req.Brief)
	if err != nil {
		return nil, err
	}

	batch, err := s.discover(ctx, q)
	if err != nil {
		return nil, err
	}

	passed, rejections := filter.Apply(batch.Profiles, q)
	for _, r := range rejections {
		s.metrics.FilterRejection(string(r.Rule))
	}

	affinity, err := s.brands.AffinitySet(ctx, q.BrandName)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, searcherr.Persistence(op, fmt.Errorf("brand affinity: %w", err))
	}
	ranked := ranking.Rank(passed, q, weights, ranking.Options{
		EngagementCeiling: s.cfg.EngagementCeiling,
		GrowthCeiling:     s.cfg.GrowthCeiling,
		Affinity:          affinity,
	})

	if err := ctx.Err(); err != nil {
		log.Info("Search abandoned before persistence", "error", err)
		return nil, err
	}

	run := &types.SearchRun{
		ID:             runID,
		RawBrief:       req.Brief,
		BriefHash:      queryparse.BriefHash(req.Brief),
		Query:          datatypes.NewJSONType(*q),
		PresetName:     presetName,
		Weights:        datatypes.NewJSONType(weights),
		Thresholds:     datatypes.NewJSONType(q.Thresholds()),
		Rejections:     datatypes.NewJSONType(rejections),
		CandidateCount: len(batch.Profiles),
		RejectedCount:  len(rejections),
		ResultCount:    len(ranked),
		Partial:        batch.Partial,
		DurationMs:     s.now().Sub(start).Milliseconds(),
		Results:        make([]types.SearchResult, 0, len(ranked)),
	}
	for _, r := range ranked {
		run.Results = append(run.Results, r.Snapshot(runID))
	}
	if err := s.runs.Create(dbctx.Context{Ctx: ctx}, run); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, searcherr.Persistence(op, err)
	}

	log.Info("Search finished",
		"brief", req.Brief,
		"candidates", run.CandidateCount,
		"rejected", run.RejectedCount,
		"results", run.ResultCount,
		"partial", run.Partial,
		"duration_ms", run.DurationMs,
	)
	return &SearchOutcome{
		Run:        run,
		Query:      q,
		Results:    ranked,
		Rejections: rejections,
		Partial:    batch.Partial,
	}, nil
}

func (s *searchService) parse(ctx context.Context, brief string) (*types.StructuredQuery, error) {
	ctx, span := observability.Tracer().Start(ctx, "search.parse")
	start := s.now()
	q, err := s.parser.Parse(ctx, brief)
	if err != nil {
		s.metrics.ObserveLLMRequest("error", s.now().Sub(start))
	} else {
		s.metrics.ObserveLLMRequest("ok", s.now().Sub(start))
		span.SetAttributes(attribute.String("query.niche", q.Niche), attribute.Int("query.target_count", q.TargetCount))
	}
	endSpan(span, err)
	return q, err
}

func (s *searchService) discover(ctx context.Context, q *types.StructuredQuery) (*discovery.Batch, error) {
	ctx, span := observability.Tracer().Start(ctx, "search.discover")
	batch, err := s.discoverer.Discover(ctx, q, q.TargetCount)
	if err == nil {
		span.SetAttributes(
			attribute.Int("discovery.resolved", len(batch.Profiles)),
			attribute.Int("discovery.unresolved", batch.Unresolved),
			attribute.Bool("discovery.partial", batch.Partial),
		)
	}
	endSpan(span, err)
	return batch, err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func outcomeLabel(out *SearchOutcome, err error) string {
	switch {
	case err == nil && out != nil && len(out.Results) == 0:
		return "empty"
	case err == nil && out != nil && out.Partial:
		return "partial"
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	if k, ok := searcherr.KindOf(err); ok {
		return string(k)
	}
	return "error"
}

func (s *searchService) Get(ctx context.Context, id uuid.UUID) (*types.SearchRun, error) {
	run, err := s.runs.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, searcherr.Persistence("search.Get", err)
	}
	if run == nil {
		return nil, ErrSearchNotFound
	}
	return run, nil
}

func (s *searchService) Rejections(ctx context.Context, id uuid.UUID) ([]types.Rejection, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rej := run.Rejections.Data()
	if rej == nil {
		rej = []types.Rejection{}
	}
	return rej, nil
}

func (s *searchService) Audit(ctx context.Context, id uuid.UUID) ([]*types.AuditRecord, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	recs, err := s.audits.ListBySearchRun(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, searcherr.Persistence("search.Audit", err)
	}
	return recs, nil
}

func (s *searchService) Recent(ctx context.Context, limit int) ([]*types.SearchRun, error) {
	runs, err := s.runs.ListRecent(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, searcherr.Persistence("search.Recent", err)
	}
	return runs, nil
}
