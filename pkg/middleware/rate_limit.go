package middleware

import (
	"net/http"
	"time"

	"github.com/cannacore/compliance-backend/pkg/config"
	ce "github.com/cannacore/compliance-backend/pkg/errors"
	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// CreateRateLimitMiddleware throttles clients by IP. The window and
// request budget come from configuration.
func CreateRateLimitMiddleware() echo.MiddlewareFunc {
	options := config.Get().Options
	window := time.Duration(options.RateLimitWindowSecs) * time.Second
	perWindow := options.RateLimitPerWindow

	return echo_middleware.RateLimiterWithConfig(echo_middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/ping" || c.Request().URL.Path == "/ping/"
		},
		Store: echo_middleware.NewRateLimiterMemoryStoreWithConfig(
			echo_middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(perWindow) / window.Seconds()),
				Burst:     perWindow,
				ExpiresIn: window,
			},
		),
		ErrorHandler: func(c echo.Context, err error) error {
			return ce.NewErrorResponse(http.StatusForbidden, "Rate limit", err.Error())
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return ce.NewErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded",
				"Too many requests, please try again later.")
		},
	})
}
