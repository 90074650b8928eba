package handler

import (
	"encoding/json"
	"net/http"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/cannacore/compliance-backend/pkg/cache"
	"github.com/cannacore/compliance-backend/pkg/clients/lamatic_client"
	"github.com/cannacore/compliance-backend/pkg/instrumentation"
	"github.com/cannacore/compliance-backend/pkg/tracking"
	"github.com/cannacore/compliance-backend/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Services bundles the long-lived collaborators the handlers share with
// the background sweepers.
type Services struct {
	Uploader *uploads.Uploader
	Tracker  *tracking.Registry
	Workflow lamatic_client.LamaticClient
	Cache    cache.Cache
	Metrics  *instrumentation.Metrics
}

func RegisterRoutes(engine *echo.Echo, services *Services) {
	group := engine.Group(api.FullRootPath())

	RegisterUploadRoutes(group, services.Uploader)
	RegisterComplianceRoutes(group, services)

	data, err := json.MarshalIndent(engine.Routes(), "", "  ")
	if err == nil {
		log.Debug().Msg(string(data))
	}
}

func RegisterPing(engine *echo.Echo) {
	engine.GET("/ping", ping)
	engine.GET("/ping/", ping)
}

func ping(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "pong",
	})
}
