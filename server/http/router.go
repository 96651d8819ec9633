package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ubp-service/internal/config"
	"ubp-service/internal/middleware"
	ubpHnd "ubp-service/internal/ubp/handler"
	"ubp-service/internal/ubp/oekobilanz"
	"ubp-service/internal/ubp/service"
	"ubp-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, calc *service.Calculator, catalog *oekobilanz.Catalog) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	deps := ubpHnd.Deps{Cfg: cfg, Logger: logger, Calc: calc, Catalog: catalog}

	r.Get("/health", handlers.Health(calc.Matcher().Store(), catalog))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/mappings", ubpHnd.Mappings(deps))
	r.Get("/reference/{id}", ubpHnd.Reference(deps))

	// основные эндпоинты
	r.Post("/calculate", ubpHnd.Calculate(deps))
	r.Post("/export", ubpHnd.Export(deps))

	return r
}
