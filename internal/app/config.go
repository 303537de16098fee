package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/provider"
	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/redis"
	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/scraper"
	"github.com/Jrogbaaa/Project-X-sub001/internal/data/db"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/envutil"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/openai"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/candidatecache"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/discovery"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/queryparse"
	"github.com/Jrogbaaa/Project-X-sub001/internal/services"
)

// Config is read once at startup and passed by value from there on.
type Config struct {
	Port        string
	LogMode     string
	CORSOrigins []string

	DB       db.Config
	Redis    redis.Config
	OpenAI   openai.Config
	Provider provider.Config
	Scraper  scraper.Config
	Otel     observability.OtelConfig

	Parser     queryparse.Config
	Cache      candidatecache.Config
	Discovery  discovery.Config
	Search     services.SearchConfig
	Enrichment services.EnrichmentConfig

	EnrichEnabled  bool
	EnrichInterval time.Duration

	PresetsFile string
	BrandsFile  string
}

// LoadDotEnv preloads a .env file when one is present. Variables already set
// in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var firstErr error
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func LoadConfig(log *logger.Logger) Config {
	var temp *float64
	if t := envutil.Float("OPENAI_TEMPERATURE", -1, log); t >= 0 {
		temp = &t
	}
	return Config{
		Port:        envutil.String("PORT", "8080", log),
		LogMode:     envutil.String("LOG_MODE", "development", log),
		CORSOrigins: splitList(envutil.String("CORS_ORIGINS", "", log)),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "influencer", log),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "influencer.db", log),
			MaxOpenConns:     envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20, log),
			SlowThreshold:    envutil.Duration("DB_SLOW_THRESHOLD", time.Second, log),
		},
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", "", log),
			Password: envutil.String("REDIS_PASSWORD", "", log),
			DB:       envutil.Int("REDIS_DB", 0, log),
			Prefix:   envutil.String("REDIS_PREFIX", "influencer", log),
		},
		OpenAI: openai.Config{
			APIKey:      envutil.String("OPENAI_API_KEY", "", log),
			BaseURL:     envutil.String("OPENAI_BASE_URL", "https://api.openai.com", log),
			Model:       envutil.String("OPENAI_MODEL", "gpt-4.1-mini", log),
			Timeout:     envutil.Duration("OPENAI_TIMEOUT", 60*time.Second, log),
			MaxRetries:  envutil.Int("OPENAI_MAX_RETRIES", 2, log),
			Temperature: temp,
		},
		Provider: provider.Config{
			BaseURL: envutil.String("PROVIDER_BASE_URL", "", log),
			APIKey:  envutil.String("PROVIDER_API_KEY", "", log),
			Timeout: envutil.Duration("PROVIDER_TIMEOUT", 20*time.Second, log),
		},
		Scraper: scraper.Config{
			BaseURL:    envutil.String("SCRAPER_BASE_URL", "", log),
			APIKey:     envutil.String("SCRAPER_API_KEY", "", log),
			Timeout:    envutil.Duration("SCRAPER_TIMEOUT", 30*time.Second, log),
			MaxRetries: envutil.Int("SCRAPER_MAX_RETRIES", 2, log),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "influencer-discovery", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1, log),
		},

		Parser: queryparse.Config{
			Defaults: queryparse.Defaults{
				MinAudiencePct: envutil.Float("DEFAULT_MIN_AUDIENCE_PCT", 60, log),
				MinCredibility: envutil.Float("DEFAULT_MIN_CREDIBILITY", 70, log),
				TargetCount:    envutil.Int("DEFAULT_TARGET_COUNT", 10, log),
				TargetCountry:  strings.ToUpper(envutil.String("DEFAULT_TARGET_COUNTRY", "", log)),
				Platform:       envutil.String("DEFAULT_PLATFORM", "instagram", log),
			},
			Timeout:  envutil.Duration("PARSE_TIMEOUT", 30*time.Second, log),
			CacheTTL: envutil.Duration("QUERY_CACHE_TTL", 15*time.Minute, log),
		},
		Cache: candidatecache.Config{
			TTL:          envutil.Duration("PROFILE_CACHE_TTL", 24*time.Hour, log),
			FetchTimeout: envutil.Duration("PROFILE_FETCH_TIMEOUT", 2*time.Minute, log),
			LockWait:     envutil.Duration("PROFILE_LOCK_WAIT", 5*time.Second, log),
		},
		Discovery: discovery.Config{
			Workers:       envutil.Int("DISCOVERY_WORKERS", 4, log),
			RatePerSec:    envutil.Float("PROVIDER_RATE_PER_SEC", 5, log),
			Burst:         envutil.Int("PROVIDER_BURST", 1, log),
			Oversample:    envutil.Float("DISCOVERY_OVERSAMPLE", 3, log),
			MaxAttempts:   envutil.Int("DISCOVERY_MAX_ATTEMPTS", 3, log),
			BaseBackoff:   envutil.Duration("DISCOVERY_BASE_BACKOFF", 500*time.Millisecond, log),
			MaxBackoff:    envutil.Duration("DISCOVERY_MAX_BACKOFF", 10*time.Second, log),
			SecondRound:   envutil.Bool("DISCOVERY_SECOND_ROUND", true, log),
			MaxCandidates: envutil.Int("DISCOVERY_MAX_CANDIDATES", 300, log),
		},
		Search: services.SearchConfig{
			Timeout:           envutil.Duration("SEARCH_TIMEOUT", 90*time.Second, log),
			EngagementCeiling: envutil.Float("RANK_ENGAGEMENT_CEILING", 10, log),
			GrowthCeiling:     envutil.Float("RANK_GROWTH_CEILING", 50, log),
		},
		Enrichment: services.EnrichmentConfig{
			BatchSize:      envutil.Int("SCRAPER_BATCH_SIZE", 30, log),
			StaleAfter:     envutil.Duration("ENRICH_STALE_AFTER", 7*24*time.Hour, log),
			Workers:        envutil.Int("ENRICH_WORKERS", 2, log),
			ProfilesPerRun: envutil.Int("ENRICH_PROFILES_PER_RUN", 50, log),
		},

		EnrichEnabled:  envutil.Bool("ENRICH_ENABLED", true, log),
		EnrichInterval: envutil.Duration("ENRICH_INTERVAL", 10*time.Minute, log),

		PresetsFile: envutil.String("PRESETS_FILE", "", log),
		BrandsFile:  envutil.String("BRANDS_FILE", "", log),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
