package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/voicelens/backend/internal/cache"
	"github.com/voicelens/backend/internal/config"
	httpapi "github.com/voicelens/backend/internal/http"
	"github.com/voicelens/backend/internal/insight"
	"github.com/voicelens/backend/internal/insight/query"
	"github.com/voicelens/backend/internal/predict"
	"github.com/voicelens/backend/internal/warehouse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "voicelens-backend").Logger()

	ctx := context.Background()
	gateway, err := warehouse.NewPostgres(ctx, cfg.DatabaseURL, cfg.QueryTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect warehouse")
	}
	defer gateway.Close()

	builder, err := query.New(cfg.WarehouseSchema, cfg.InsightTable())
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid insight table reference")
	}
	logger.Info().Str("table", builder.Table()).Bool("debug", cfg.Debug).Msg("insight table resolved")

	var pageCache insight.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.New(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid redis url")
		}
		if err := rc.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, caching disabled")
		} else {
			pageCache = rc
		}
	}

	var predictor predict.Client
	if cfg.PredictURL == "" {
		predictor = predict.MockClient{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock prediction client")
	} else {
		predictor = predict.HTTPClient{BaseURL: cfg.PredictURL}
	}

	insights := &insight.Service{
		Gateway:       gateway,
		Builder:       builder,
		Cache:         pageCache,
		CacheTTL:      cfg.CacheTTL,
		ExcludedTerms: cfg.OwnTerms(),
		Logger:        logger,
	}

	router := httpapi.Router(cfg, gateway, gateway, insights, predictor, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
