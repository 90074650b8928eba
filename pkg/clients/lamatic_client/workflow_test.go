package lamatic_client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/cannacore/compliance-backend/pkg/config"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configureLamatic(t *testing.T, server string) {
	config.LoadedConfig.Loaded = true
	config.LoadedConfig.Clients.Lamatic = config.Lamatic{
		Server:     server,
		ApiKey:     "test-key",
		ProjectId:  "test-project",
		WorkflowId: "test-workflow",
		Timeout:    5,
	}
}

func newTestClient() *lamaticImpl {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil
	return &lamaticImpl{client: client}
}

func TestExecuteWorkflow(t *testing.T) {
	var gotAuth, gotProject string
	var gotRequest graphqlRequest
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotProject = r.Header.Get("x-project-id")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotRequest)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data": {"executeWorkflow": {"status": "pending", "result": {"requestId": "req-42"}}}}`))
	}))
	defer httpServer.Close()
	configureLamatic(t, httpServer.URL)

	requestID, statusCode, err := newTestClient().ExecuteWorkflow(context.Background(), WorkflowPayload{
		ImageURLs:     []string{"https://blob.test/images/a.jpg"},
		LabelURLs:     []string{"https://blob.test/images/a.jpg"},
		Jurisdictions: []string{"FL"},
		CompanyName:   "Acme Farms",
		ProductType:   "edible",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, statusCode)
	assert.Equal(t, "req-42", requestID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-project", gotProject)
	assert.Equal(t, "test-workflow", gotRequest.Variables["workflowId"])
	// Empty COA list is replaced with the engine's sentinel.
	assert.Equal(t, []any{"not provided"}, gotRequest.Variables["coaurl"])
}

func TestExecuteWorkflowEngineError(t *testing.T) {
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"errors": [{"message": "workflow not found"}]}`))
	}))
	defer httpServer.Close()
	configureLamatic(t, httpServer.URL)

	_, _, err := newTestClient().ExecuteWorkflow(context.Background(), WorkflowPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow not found")
}

func TestExecuteWorkflowMissingRequestId(t *testing.T) {
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data": {"executeWorkflow": {"status": "pending", "result": {}}}}`))
	}))
	defer httpServer.Close()
	configureLamatic(t, httpServer.URL)

	_, _, err := newTestClient().ExecuteWorkflow(context.Background(), WorkflowPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requestId")
}

func TestGetResult(t *testing.T) {
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data": {"getResult": {"status": "completed", "result": {"compliance_check": []}}}}`))
	}))
	defer httpServer.Close()
	configureLamatic(t, httpServer.URL)

	result, statusCode, err := newTestClient().GetResult(context.Background(), "req-42")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, statusCode)
	assert.Equal(t, api.StatusSuccess, result.Status)
	assert.JSONEq(t, `{"compliance_check": []}`, string(result.Result))
}

func TestGetResultFailed(t *testing.T) {
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data": {"getResult": {"status": "failed", "error": "could not read label"}}}`))
	}))
	defer httpServer.Close()
	configureLamatic(t, httpServer.URL)

	result, _, err := newTestClient().GetResult(context.Background(), "req-42")
	require.NoError(t, err)
	assert.Equal(t, api.StatusFailed, result.Status)
	assert.Equal(t, "could not read label", result.ErrorMsg)
}

func TestGetResultUpstreamStatusCode(t *testing.T) {
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer httpServer.Close()
	configureLamatic(t, httpServer.URL)

	_, statusCode, err := newTestClient().GetResult(context.Background(), "req-42")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, statusCode)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, api.StatusSuccess, NormalizeStatus("completed", ""))
	assert.Equal(t, api.StatusSuccess, NormalizeStatus("success", ""))
	assert.Equal(t, api.StatusFailed, NormalizeStatus("failed", ""))
	assert.Equal(t, api.StatusFailed, NormalizeStatus("", "boom"))
	assert.Equal(t, api.StatusProcessing, NormalizeStatus("in-progress", ""))
	assert.Equal(t, api.StatusPending, NormalizeStatus("", ""))
	assert.Equal(t, api.StatusPending, NormalizeStatus("queued", ""))
}
