package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cannacore/compliance-backend/pkg/cache"
	"github.com/cannacore/compliance-backend/pkg/clients/lamatic_client"
	"github.com/cannacore/compliance-backend/pkg/config"
	"github.com/cannacore/compliance-backend/pkg/handler"
	"github.com/cannacore/compliance-backend/pkg/instrumentation"
	"github.com/cannacore/compliance-backend/pkg/router"
	"github.com/cannacore/compliance-backend/pkg/storage"
	"github.com/cannacore/compliance-backend/pkg/tasks"
	"github.com/cannacore/compliance-backend/pkg/tracking"
	"github.com/cannacore/compliance-backend/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	config.Load()
	config.ConfigureLogging()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objects, err := storage.NewS3Storage(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not configure object storage")
	}

	metrics := instrumentation.NewMetrics(prometheus.NewRegistry())

	options := config.Get().Options
	store := uploads.NewChunkStore(options.SessionTimeout)
	tracker := tracking.NewRegistry(objects, options.TrackingTimeout)
	tracker.Metrics = metrics

	uploader := uploads.NewUploader(store, objects, nil, options.ReduceThresholdBytes)
	uploader.Metrics = metrics

	services := &handler.Services{
		Uploader: uploader,
		Tracker:  tracker,
		Workflow: lamatic_client.NewLamaticClient(),
		Cache:    cache.Initialize(),
		Metrics:  metrics,
	}

	sweeper := tasks.NewSweeper(ctx, store, tracker, metrics,
		options.SessionSweepInterval, options.TrackingSweep)
	go sweeper.Run()

	apiServer := router.ConfigureEchoWithMetrics(services, metrics)
	go func() {
		if err := apiServer.Start(":8000"); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	metricsServer := echo.New()
	metricsServer.HideBanner = true
	metricsServer.GET(config.Get().Metrics.Path, echo.WrapHandler(
		promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	go func() {
		addr := fmt.Sprintf(":%d", config.Get().Metrics.Port)
		if err := metricsServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Metrics server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down API server")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}
}
