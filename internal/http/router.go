package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Jrogbaaa/Project-X-sub001/internal/http/handlers"
	httpMW "github.com/Jrogbaaa/Project-X-sub001/internal/http/middleware"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	Gatherer    prometheus.Gatherer
	ServiceName string
	CORSOrigins []string

	SearchHandler *httpH.SearchHandler
	WeightHandler *httpH.WeightHandler
	BrandHandler  *httpH.BrandHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		// Searches
		if cfg.SearchHandler != nil {
			api.POST("/searches", cfg.SearchHandler.Create)
			api.GET("/searches", cfg.SearchHandler.ListRecent)
			api.GET("/searches/:id", cfg.SearchHandler.Get)
			api.GET("/searches/:id/rejections", cfg.SearchHandler.Rejections)
			api.GET("/searches/:id/audit", cfg.SearchHandler.Audit)
		}

		// Weight presets
		if cfg.WeightHandler != nil {
			api.GET("/weights", cfg.WeightHandler.List)
			api.POST("/weights", cfg.WeightHandler.Save)
			api.DELETE("/weights/:name", cfg.WeightHandler.Delete)
		}

		// Brand knowledge base
		if cfg.BrandHandler != nil {
			api.GET("/brands", cfg.BrandHandler.List)
			api.POST("/brands/import", cfg.BrandHandler.Import)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})

	return r
}
