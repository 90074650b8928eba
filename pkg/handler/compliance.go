package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/cannacore/compliance-backend/pkg/cache"
	"github.com/cannacore/compliance-backend/pkg/clients/lamatic_client"
	"github.com/cannacore/compliance-backend/pkg/config"
	ce "github.com/cannacore/compliance-backend/pkg/errors"
	"github.com/cannacore/compliance-backend/pkg/instrumentation"
	"github.com/cannacore/compliance-backend/pkg/tracking"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const unknownValue = "N/A"

// maxResultWait bounds a blocking (wait=true) result request so a stalled
// workflow cannot pin the connection indefinitely.
const maxResultWait = 2 * time.Minute

type ComplianceHandler struct {
	Workflow lamatic_client.LamaticClient
	Tracker  *tracking.Registry
	Cache    cache.Cache
	Metrics  *instrumentation.Metrics
}

func RegisterComplianceRoutes(engine *echo.Group, services *Services) {
	ch := ComplianceHandler{
		Workflow: services.Workflow,
		Tracker:  services.Tracker,
		Cache:    services.Cache,
		Metrics:  services.Metrics,
	}
	engine.POST("/compliance_checks/", ch.submitComplianceCheck)
	engine.GET("/compliance_checks/:request_id", ch.getComplianceResult)
}

// submitComplianceCheck forwards already-uploaded file URLs to the
// workflow engine and answers immediately with the job id to poll.
func (ch *ComplianceHandler) submitComplianceCheck(c echo.Context) error {
	var req api.ComplianceCheckRequest
	if err := c.Bind(&req); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error binding parameters", err.Error())
	}
	if len(req.ImageURLs) == 0 {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error submitting compliance check",
			"Please upload either product images or labels PDF")
	}
	if len(req.Jurisdictions) == 0 {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error submitting compliance check",
			"At least one jurisdiction is required")
	}

	now := time.Now()
	payload := lamatic_client.WorkflowPayload{
		ImageURLs:     req.ImageURLs,
		CoaURLs:       req.CoaURLs,
		LabelURLs:     req.ImageURLs,
		Jurisdictions: req.Jurisdictions,
		CompanyName:   defaulted(req.CompanyName, unknownValue),
		ProductType:   defaulted(req.ProductType, unknownValue),
		Date:          defaulted(req.Date, now.Format("2006-01-02")),
		Time:          defaulted(req.Time, now.Format("15:04:05")),
	}

	requestID, statusCode, err := ch.Workflow.ExecuteWorkflow(c.Request().Context(), payload)
	if err != nil {
		if statusCode < http.StatusBadRequest {
			statusCode = http.StatusBadGateway
		}
		return ce.NewErrorResponse(statusCode, "Error submitting compliance check", err.Error())
	}

	ch.Tracker.Record(requestID, append(append([]string{}, req.ImageURLs...), req.CoaURLs...))

	return c.JSON(http.StatusOK, api.ComplianceCheckResponse{
		RequestID: requestID,
		Status:    api.StatusPending,
		Message:   "Compliance check submitted. Please wait for results.",
	})
}

// getComplianceResult polls the workflow engine for a submitted job.
// With wait=true the request blocks, polling upstream until the job is
// terminal or maxResultWait elapses. Terminal answers are cached and fire
// the asynchronous cleanup of the uploaded objects recorded for the job.
func (ch *ComplianceHandler) getComplianceResult(c echo.Context) error {
	requestID := c.Param("request_id")
	if requestID == "" {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error checking results", "request_id is required")
	}

	ctx := c.Request().Context()
	if cached, err := ch.Cache.GetComplianceResult(ctx, requestID); err == nil {
		return c.JSON(http.StatusOK, *cached)
	}

	var result lamatic_client.WorkflowResult
	if c.QueryParam("wait") == "true" {
		waitCtx, cancel := context.WithTimeout(ctx, maxResultWait)
		defer cancel()

		poller := lamatic_client.NewPoller(ch.Workflow, config.Get().Options.ResultPollInterval)
		var err error
		result, err = poller.Wait(waitCtx, requestID)
		if err != nil {
			return ce.NewErrorResponse(http.StatusGatewayTimeout, "Error checking results",
				"Timed out waiting for the compliance check to finish")
		}
	} else {
		var statusCode int
		var err error
		result, statusCode, err = ch.Workflow.GetResult(ctx, requestID)
		if err != nil {
			if statusCode < http.StatusBadRequest {
				statusCode = http.StatusBadGateway
			}
			return ce.NewErrorResponse(statusCode, "Error checking results", err.Error())
		}
	}

	resp := api.ComplianceResultResponse{
		RequestID: requestID,
		Status:    result.Status,
	}
	switch result.Status {
	case api.StatusSuccess:
		resp.Data = AddComplianceItemUrls(result.Result)
	case api.StatusFailed:
		errorMsg := result.ErrorMsg
		if errorMsg == "" {
			errorMsg = "Unknown error from compliance workflow"
		}
		resp.Error = "Compliance check failed: " + errorMsg
	default:
		resp.Message = "Still processing..."
	}

	if api.TerminalStatus(result.Status) {
		ch.Metrics.RecordCheckStatus(result.Status)
		if err := ch.Cache.SetComplianceResult(ctx, requestID, resp); err != nil {
			log.Error().Err(err).Msg("Error caching compliance result")
		}
		go ch.Tracker.Resolve(context.Background(), requestID)
	}

	return c.JSON(http.StatusOK, resp)
}

func defaulted(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
