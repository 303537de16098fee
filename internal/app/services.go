package app

import (
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/candidatecache"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/discovery"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/queryparse"
	"github.com/Jrogbaaa/Project-X-sub001/internal/services"
)

type Services struct {
	Weights    services.WeightService
	Brands     services.BrandService
	Search     services.SearchService
	Enrichment services.EnrichmentService

	Parser     *queryparse.Parser
	Cache      *candidatecache.Cache
	Discoverer *discovery.Discoverer
}

func wireServices(log *logger.Logger, metrics *observability.Metrics, cfg Config, clients Clients, r Repos) Services {
	log.Info("Wiring services...")

	weights := services.NewWeightService(log, r.WeightPreset)
	brands := services.NewBrandService(log, r.Brand)

	var queryStore queryparse.Store
	var cacheOpts []candidatecache.Option
	if clients.Redis != nil {
		queryStore = clients.Redis
		cacheOpts = append(cacheOpts, candidatecache.WithLocker(clients.Redis))
	}

	parser := queryparse.New(log, clients.OpenAI, queryStore, cfg.Parser)
	cache := candidatecache.New(log, metrics, services.NewProfileStore(r.Profile), cfg.Cache, cacheOpts...)
	discoverer := discovery.New(log, metrics, clients.Provider, cache, services.NewAuditSink(r.Audit), cfg.Discovery)

	search := services.NewSearchService(
		log,
		metrics,
		parser,
		discoverer,
		weights,
		brands,
		r.SearchRun,
		r.Audit,
		cfg.Search,
	)

	var enrichment services.EnrichmentService
	if clients.Scraper != nil {
		enrichment = services.NewEnrichmentService(log, metrics, clients.Scraper, r.Profile, r.Content, brands, cfg.Enrichment)
	}

	return Services{
		Weights:    weights,
		Brands:     brands,
		Search:     search,
		Enrichment: enrichment,
		Parser:     parser,
		Cache:      cache,
		Discoverer: discoverer,
	}
}
