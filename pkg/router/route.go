package router

import (
	"time"

	"github.com/cannacore/compliance-backend/pkg/config"
	"github.com/cannacore/compliance-backend/pkg/handler"
	"github.com/cannacore/compliance-backend/pkg/instrumentation"
	"github.com/cannacore/compliance-backend/pkg/middleware"
	"github.com/content-services/lecho/v3"
	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func ConfigureEcho(services *handler.Services, allRoutes bool) *echo.Echo {
	e := echo.New()
	// Add global middlewares
	echoLogger := lecho.From(log.Logger,
		lecho.WithTimestamp(),
		lecho.WithCaller(),
	)

	e.Use(middleware.AddRequestId)
	e.Use(lecho.Middleware(lecho.Config{
		Logger:              echoLogger,
		RequestIDHeader:     config.HeaderRequestId,
		RequestIDKey:        config.RequestIdLoggingKey,
		Skipper:             config.SkipLogging,
		RequestLatencyLevel: zerolog.WarnLevel,
		RequestLatencyLimit: 500 * time.Millisecond,
	}))
	e.Use(middleware.ExtractStatus) // Must be after lecho
	e.Use(middleware.EnforceJSONContentType)
	e.Use(middleware.LogServerErrorRequest)
	e.Use(echo_middleware.CORS())

	// Add routes
	handler.RegisterPing(e)
	if allRoutes {
		handler.RegisterRoutes(e, services)
	}

	// Set error handler
	e.HTTPErrorHandler = config.CustomHTTPErrorHandler
	return e
}

func ConfigureEchoWithMetrics(services *handler.Services, metrics *instrumentation.Metrics) *echo.Echo {
	e := ConfigureEcho(services, true)

	// Add additional global middlewares
	e.Use(middleware.CreateMetricsMiddleware(metrics))
	if config.Get().Options.RateLimitPerWindow > 0 {
		e.Use(middleware.CreateRateLimitMiddleware())
	}
	return e
}
