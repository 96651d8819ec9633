package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ubp-service/internal/config"
	"ubp-service/internal/metrics"
	"ubp-service/internal/ubp/mapping"
	"ubp-service/internal/ubp/oekobilanz"
	"ubp-service/internal/ubp/service"
	serverhttp "ubp-service/server/http"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)
	metrics.Init()

	store, err := mapping.Load(cfg.MaterialMap)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.MaterialMap).Msg("material map")
	}
	if store.Empty() {
		logger.Warn().Str("path", cfg.MaterialMap).Msg("material map not found, every component will report unmatched")
	}
	metrics.SetMappingEntries("materials", len(store.Materials()))
	metrics.SetMappingEntries("type_overrides", len(store.TypeOverrides()))
	metrics.SetMappingEntries("type_fallback", len(store.Fallbacks()))
	metrics.SetMappingEntries("coatings", len(store.Coatings()))

	catalog, err := oekobilanz.Open(cfg.OekobilanzFile)
	switch {
	case err != nil:
		logger.Error().Err(err).Msg("oekobilanz database unreadable")
	case catalog == nil:
		logger.Warn().Str("path", cfg.OekobilanzFile).Msg("oekobilanz database not found")
	default:
		logger.Info().Int("entries", catalog.Len()).Msg("oekobilanz database loaded")
	}

	calc := service.NewCalculator(service.NewMatcher(store), logger)
	r := serverhttp.NewRouter(cfg, logger, calc, catalog)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r, ReadHeaderTimeout: 10 * time.Second}
	logger.Info().Str("addr", cfg.Addr()).Int("materials", len(store.Materials())).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
