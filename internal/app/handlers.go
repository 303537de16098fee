package app

import (
	httpH "github.com/Jrogbaaa/Project-X-sub001/internal/http/handlers"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Search *httpH.SearchHandler
	Weight *httpH.WeightHandler
	Brand  *httpH.BrandHandler
}

func wireHandlers(log *logger.Logger, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Search: httpH.NewSearchHandler(services.Search),
		Weight: httpH.NewWeightHandler(services.Weights),
		Brand:  httpH.NewBrandHandler(services.Brands),
	}
}
