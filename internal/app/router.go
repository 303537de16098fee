package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	server "github.com/Jrogbaaa/Project-X-sub001/internal/http"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

func wireServer(log *logger.Logger, metrics *observability.Metrics, gatherer prometheus.Gatherer, cfg Config, handlers Handlers) *server.Server {
	srv := server.NewServer(server.RouterConfig{
		Log:           log.With("component", "HTTP"),
		Metrics:       metrics,
		Gatherer:      gatherer,
		ServiceName:   cfg.Otel.ServiceName,
		CORSOrigins:   cfg.CORSOrigins,
		SearchHandler: handlers.Search,
		WeightHandler: handlers.Weight,
		BrandHandler:  handlers.Brand,
		HealthHandler: handlers.Health,
	})
	if cfg.Search.Timeout > 0 && srv.WriteTimeout <= cfg.Search.Timeout {
		srv.WriteTimeout = cfg.Search.Timeout + 30*time.Second
	}
	return srv
}
