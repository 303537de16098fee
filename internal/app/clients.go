package app

import (
	"fmt"
	"strings"

	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/provider"
	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/redis"
	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/scraper"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/openai"
)

type Clients struct {
	// Redis is nil when REDIS_ADDR is unset; caching and locking stay in-process.
	Redis    *redis.Client
	OpenAI   openai.Client
	Provider provider.Client
	// Scraper is nil when SCRAPER_BASE_URL is unset; enrichment is disabled.
	Scraper scraper.Client
}

func wireClients(log *logger.Logger, metrics *observability.Metrics, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var rc *redis.Client
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		c, err := redis.NewClient(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		rc = c
	} else {
		log.Warn("REDIS_ADDR not set; brief cache and fetch lock are process-local")
	}

	// Openai
	llm, err := openai.NewClient(log, metrics, cfg.OpenAI)
	if err != nil {
		closeRedis(rc)
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Data provider
	prov, err := provider.NewClient(log, metrics, cfg.Provider)
	if err != nil {
		closeRedis(rc)
		return Clients{}, fmt.Errorf("init provider client: %w", err)
	}

	// Content scraper
	var sc scraper.Client
	if strings.TrimSpace(cfg.Scraper.BaseURL) != "" {
		sc, err = scraper.NewClient(log, cfg.Scraper)
		if err != nil {
			closeRedis(rc)
			return Clients{}, fmt.Errorf("init scraper client: %w", err)
		}
	} else {
		log.Warn("SCRAPER_BASE_URL not set; offline enrichment disabled")
	}

	return Clients{
		Redis:    rc,
		OpenAI:   llm,
		Provider: prov,
		Scraper:  sc,
	}, nil
}

func closeRedis(rc *redis.Client) {
	if rc != nil {
		_ = rc.Close()
	}
}
