package lamatic_client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/cannacore/compliance-backend/pkg/config"
)

const executeWorkflowQuery = `
  query executeWorkflow(
    $workflowId: String!
    $imageurl: [String]
    $coaurl: [String]
    $labelurl: [String]
    $jurisdictions: [String]
    $date: String
    $time: String
    $company_name: String
    $product_type: String
  ) {
    executeWorkflow(
      workflowId: $workflowId
      payload: {
        imageurl: $imageurl
        coaurl: $coaurl
        labelurl: $labelurl
        jurisdictions: $jurisdictions
        date: $date
        time: $time
        company_name: $company_name
        product_type: $product_type
      }
    ) {
      status
      result
    }
  }
`

const getResultQuery = `
  query getResult($requestId: String!) {
    getResult(requestId: $requestId) {
      result
      status
      error
    }
  }
`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type executeWorkflowResponse struct {
	Data struct {
		ExecuteWorkflow struct {
			Status string `json:"status"`
			Result struct {
				RequestID string `json:"requestId"`
			} `json:"result"`
		} `json:"executeWorkflow"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type getResultResponse struct {
	Data struct {
		GetResult struct {
			Result json.RawMessage `json:"result"`
			Status string          `json:"status"`
			Error  string          `json:"error"`
		} `json:"getResult"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

func (l *lamaticImpl) ExecuteWorkflow(ctx context.Context, payload WorkflowPayload) (string, int, error) {
	statusCode := http.StatusInternalServerError
	cfg := config.Get().Clients.Lamatic
	if cfg.Server == "" || cfg.ApiKey == "" || cfg.WorkflowId == "" || cfg.ProjectId == "" {
		return "", statusCode, fmt.Errorf("lamatic client is not fully configured")
	}

	coaURLs := payload.CoaURLs
	if len(coaURLs) == 0 {
		// Workflow contract expects a sentinel, not an empty list.
		coaURLs = []string{"not provided"}
	}

	body, err := json.Marshal(graphqlRequest{
		Query: executeWorkflowQuery,
		Variables: map[string]any{
			"workflowId":    cfg.WorkflowId,
			"imageurl":      payload.ImageURLs,
			"coaurl":        coaURLs,
			"labelurl":      payload.LabelURLs,
			"jurisdictions": payload.Jurisdictions,
			"date":          payload.Date,
			"time":          payload.Time,
			"company_name":  payload.CompanyName,
			"product_type":  payload.ProductType,
		},
	})
	if err != nil {
		return "", statusCode, err
	}

	resp, err := l.do(ctx, body)
	if err != nil {
		return "", statusCode, fmt.Errorf("error during workflow submission: %w", err)
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", statusCode, fmt.Errorf("error during read response body: %w", err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return "", statusCode, fmt.Errorf("unexpected status code with body: %s", string(respBody))
	}

	var execResp executeWorkflowResponse
	err = json.Unmarshal(respBody, &execResp)
	if err != nil {
		return "", statusCode, fmt.Errorf("error during unmarshal response body: %w", err)
	}
	if len(execResp.Errors) > 0 {
		return "", statusCode, fmt.Errorf("workflow engine error: %s", execResp.Errors[0].Message)
	}

	requestID := execResp.Data.ExecuteWorkflow.Result.RequestID
	if requestID == "" {
		return "", statusCode, fmt.Errorf("no requestId returned, cannot poll for results")
	}
	return requestID, statusCode, nil
}

func (l *lamaticImpl) GetResult(ctx context.Context, requestID string) (WorkflowResult, int, error) {
	statusCode := http.StatusInternalServerError

	body, err := json.Marshal(graphqlRequest{
		Query:     getResultQuery,
		Variables: map[string]any{"requestId": requestID},
	})
	if err != nil {
		return WorkflowResult{}, statusCode, err
	}

	resp, err := l.do(ctx, body)
	if err != nil {
		return WorkflowResult{}, statusCode, fmt.Errorf("error during result poll: %w", err)
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return WorkflowResult{}, statusCode, fmt.Errorf("error during read response body: %w", err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return WorkflowResult{}, statusCode, fmt.Errorf("unexpected status code with body: %s", string(respBody))
	}

	var pollResp getResultResponse
	err = json.Unmarshal(respBody, &pollResp)
	if err != nil {
		return WorkflowResult{}, statusCode, fmt.Errorf("error during unmarshal response body: %w", err)
	}
	if len(pollResp.Errors) > 0 {
		return WorkflowResult{}, statusCode, fmt.Errorf("workflow engine error: %s", pollResp.Errors[0].Message)
	}

	return WorkflowResult{
		Status:   NormalizeStatus(pollResp.Data.GetResult.Status, pollResp.Data.GetResult.Error),
		Result:   pollResp.Data.GetResult.Result,
		ErrorMsg: pollResp.Data.GetResult.Error,
	}, statusCode, nil
}

// NormalizeStatus maps the engine's status strings onto the
// pending/processing/success/failed enum relayed to clients. An error
// message forces failed even when the engine omits a status.
func NormalizeStatus(status string, errorMsg string) string {
	switch status {
	case "success", "succeeded", "completed":
		return api.StatusSuccess
	case "failed", "error":
		return api.StatusFailed
	case "processing", "in-progress", "running":
		return api.StatusProcessing
	}
	if errorMsg != "" {
		return api.StatusFailed
	}
	return api.StatusPending
}
