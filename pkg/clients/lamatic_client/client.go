// Package lamatic_client talks to the remote compliance-analysis workflow
// engine: submit a job, poll it by request id until it reaches a terminal
// state.
package lamatic_client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cannacore/compliance-backend/pkg/config"
	"github.com/hashicorp/go-retryablehttp"
)

type LamaticClient interface {
	// ExecuteWorkflow submits a compliance job and returns its request id.
	ExecuteWorkflow(ctx context.Context, payload WorkflowPayload) (requestID string, statusCode int, err error)
	// GetResult polls a submitted job once.
	GetResult(ctx context.Context, requestID string) (result WorkflowResult, statusCode int, err error)
}

// WorkflowPayload mirrors the executeWorkflow GraphQL variables.
type WorkflowPayload struct {
	ImageURLs     []string
	CoaURLs       []string
	LabelURLs     []string
	Jurisdictions []string
	Date          string
	Time          string
	CompanyName   string
	ProductType   string
}

// WorkflowResult is one poll observation. Status is normalized to the
// api package's pending/processing/success/failed enum.
type WorkflowResult struct {
	Status   string
	Result   json.RawMessage
	ErrorMsg string
}

type lamaticImpl struct {
	client *retryablehttp.Client
}

func NewLamaticClient() LamaticClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	client.HTTPClient.Timeout = time.Duration(config.Get().Clients.Lamatic.Timeout) * time.Second
	return &lamaticImpl{client: client}
}

func (l *lamaticImpl) do(ctx context.Context, body []byte) (*http.Response, error) {
	cfg := config.Get().Clients.Lamatic
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, cfg.Server, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.ApiKey)
	req.Header.Set("x-project-id", cfg.ProjectId)
	return l.client.Do(req)
}
