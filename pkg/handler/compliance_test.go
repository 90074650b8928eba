package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/cannacore/compliance-backend/pkg/cache"
	"github.com/cannacore/compliance-backend/pkg/clients/lamatic_client"
	"github.com/cannacore/compliance-backend/pkg/config"
	"github.com/cannacore/compliance-backend/pkg/instrumentation"
	"github.com/cannacore/compliance-backend/pkg/storage"
	"github.com/cannacore/compliance-backend/pkg/tracking"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ComplianceHandlerSuite struct {
	suite.Suite
	workflow *lamatic_client.MockLamaticClient
	objects  *storage.MockObjectStorage
	tracker  *tracking.Registry
	cache    *cache.MockCache
	metrics  *instrumentation.Metrics
}

func TestComplianceHandlerSuite(t *testing.T) {
	suite.Run(t, new(ComplianceHandlerSuite))
}

func (s *ComplianceHandlerSuite) SetupTest() {
	s.workflow = &lamatic_client.MockLamaticClient{}
	s.objects = &storage.MockObjectStorage{}
	s.tracker = tracking.NewRegistry(s.objects, 24*time.Hour)
	s.cache = &cache.MockCache{}
	s.metrics = instrumentation.NewMetrics(prometheus.NewRegistry())
	config.Get().Options.ResultPollInterval = 5 * time.Millisecond
}

func (s *ComplianceHandlerSuite) serveComplianceRouter(req *http.Request) (int, []byte, error) {
	router := echo.New()
	router.HTTPErrorHandler = config.CustomHTTPErrorHandler
	pathPrefix := router.Group(api.FullRootPath())

	RegisterComplianceRoutes(pathPrefix, &Services{
		Workflow: s.workflow,
		Tracker:  s.tracker,
		Cache:    s.cache,
		Metrics:  s.metrics,
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	response := rr.Result()
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	return response.StatusCode, body, err
}

func (s *ComplianceHandlerSuite) submitRequest(body api.ComplianceCheckRequest) *http.Request {
	data, err := json.Marshal(body)
	s.NoError(err)
	req := httptest.NewRequest(http.MethodPost, api.FullRootPath()+"/compliance_checks/", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *ComplianceHandlerSuite) TestSubmitComplianceCheck() {
	s.workflow.On("ExecuteWorkflow", mock.Anything, mock.MatchedBy(func(p lamatic_client.WorkflowPayload) bool {
		return p.CompanyName == "Acme Farms" && p.ProductType == "N/A" && len(p.LabelURLs) == 1
	})).Return("req-42", http.StatusOK, nil)

	code, body, err := s.serveComplianceRouter(s.submitRequest(api.ComplianceCheckRequest{
		ImageURLs:     []string{"https://blob.test/images/a.jpg"},
		Jurisdictions: []string{"FL"},
		CompanyName:   "Acme Farms",
	}))
	s.NoError(err)
	s.Equal(http.StatusOK, code)

	var resp api.ComplianceCheckResponse
	s.NoError(json.Unmarshal(body, &resp))
	s.Equal("req-42", resp.RequestID)
	s.Equal(api.StatusPending, resp.Status)
	s.Equal(1, s.tracker.Len())
}

func (s *ComplianceHandlerSuite) TestSubmitComplianceCheckNoFiles() {
	code, body, err := s.serveComplianceRouter(s.submitRequest(api.ComplianceCheckRequest{
		Jurisdictions: []string{"FL"},
	}))
	s.NoError(err)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(string(body), "Please upload either product images or labels PDF")
	s.workflow.AssertNotCalled(s.T(), "ExecuteWorkflow", mock.Anything, mock.Anything)
}

func (s *ComplianceHandlerSuite) TestSubmitComplianceCheckNoJurisdictions() {
	code, body, err := s.serveComplianceRouter(s.submitRequest(api.ComplianceCheckRequest{
		ImageURLs: []string{"https://blob.test/images/a.jpg"},
	}))
	s.NoError(err)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(string(body), "jurisdiction")
}

func (s *ComplianceHandlerSuite) TestSubmitComplianceCheckUpstreamFailure() {
	s.workflow.On("ExecuteWorkflow", mock.Anything, mock.Anything).
		Return("", 0, errors.New("connection refused"))

	code, body, err := s.serveComplianceRouter(s.submitRequest(api.ComplianceCheckRequest{
		ImageURLs:     []string{"https://blob.test/images/a.jpg"},
		Jurisdictions: []string{"FL"},
	}))
	s.NoError(err)
	s.Equal(http.StatusBadGateway, code)
	s.Contains(string(body), "connection refused")
	s.Equal(0, s.tracker.Len())
}

func (s *ComplianceHandlerSuite) resultRequest(requestID string) *http.Request {
	return httptest.NewRequest(http.MethodGet, api.FullRootPath()+"/compliance_checks/"+requestID, nil)
}

func (s *ComplianceHandlerSuite) TestGetComplianceResultProcessing() {
	s.cache.On("GetComplianceResult", mock.Anything, "req-42").Return(nil, cache.ErrNotFound)
	s.workflow.On("GetResult", mock.Anything, "req-42").
		Return(lamatic_client.WorkflowResult{Status: api.StatusProcessing}, http.StatusOK, nil)

	code, body, err := s.serveComplianceRouter(s.resultRequest("req-42"))
	s.NoError(err)
	s.Equal(http.StatusOK, code)

	var resp api.ComplianceResultResponse
	s.NoError(json.Unmarshal(body, &resp))
	s.Equal(api.StatusProcessing, resp.Status)
	s.Equal("Still processing...", resp.Message)
	s.cache.AssertNotCalled(s.T(), "SetComplianceResult", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ComplianceHandlerSuite) TestGetComplianceResultSuccess() {
	result := json.RawMessage(`{"compliance_check": [{"jurisdiction": "FL", "label": [{"item": "warning text", "status": "fail", "ref": "5K-4.034"}]}]}`)
	s.cache.On("GetComplianceResult", mock.Anything, "req-42").Return(nil, cache.ErrNotFound)
	s.cache.On("SetComplianceResult", mock.Anything, "req-42", mock.Anything).Return(nil)
	s.workflow.On("GetResult", mock.Anything, "req-42").
		Return(lamatic_client.WorkflowResult{Status: api.StatusSuccess, Result: result}, http.StatusOK, nil)

	code, body, err := s.serveComplianceRouter(s.resultRequest("req-42"))
	s.NoError(err)
	s.Equal(http.StatusOK, code)

	var resp api.ComplianceResultResponse
	s.NoError(json.Unmarshal(body, &resp))
	s.Equal(api.StatusSuccess, resp.Status)
	s.Contains(string(resp.Data), "law.cornell.edu")
}

func (s *ComplianceHandlerSuite) TestGetComplianceResultFailed() {
	s.cache.On("GetComplianceResult", mock.Anything, "req-42").Return(nil, cache.ErrNotFound)
	s.cache.On("SetComplianceResult", mock.Anything, "req-42", mock.Anything).Return(nil)
	s.workflow.On("GetResult", mock.Anything, "req-42").
		Return(lamatic_client.WorkflowResult{Status: api.StatusFailed, ErrorMsg: "could not read label"}, http.StatusOK, nil)

	code, body, err := s.serveComplianceRouter(s.resultRequest("req-42"))
	s.NoError(err)
	s.Equal(http.StatusOK, code)

	var resp api.ComplianceResultResponse
	s.NoError(json.Unmarshal(body, &resp))
	s.Equal(api.StatusFailed, resp.Status)
	s.Equal("Compliance check failed: could not read label", resp.Error)
}

func (s *ComplianceHandlerSuite) TestGetComplianceResultSuccessCleansTrackedObjects() {
	urls := []string{"https://blob.test/images/a.jpg", "https://blob.test/pdfs/b.pdf"}
	s.tracker.Record("req-42", urls)
	deleted := make(chan string, len(urls))
	for _, url := range urls {
		s.objects.On("Owns", url).Return(true).Once()
		s.objects.On("Delete", mock.Anything, url).Return(nil).
			Run(func(args mock.Arguments) { deleted <- args.String(1) }).Once()
	}

	s.cache.On("GetComplianceResult", mock.Anything, "req-42").Return(nil, cache.ErrNotFound)
	s.cache.On("SetComplianceResult", mock.Anything, "req-42", mock.Anything).Return(nil)
	s.workflow.On("GetResult", mock.Anything, "req-42").
		Return(lamatic_client.WorkflowResult{Status: api.StatusSuccess, Result: json.RawMessage(`{}`)}, http.StatusOK, nil)

	code, _, err := s.serveComplianceRouter(s.resultRequest("req-42"))
	s.NoError(err)
	s.Equal(http.StatusOK, code)

	// Cleanup runs off the request goroutine, after the response is written.
	s.ElementsMatch(urls, s.collectDeletes(deleted, len(urls)))
	s.Eventually(func() bool { return s.tracker.Len() == 0 }, time.Second, 5*time.Millisecond)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.ComplianceChecksTotal.WithLabelValues(api.StatusSuccess)))
}

func (s *ComplianceHandlerSuite) collectDeletes(deleted chan string, expected int) []string {
	urls := []string{}
	for len(urls) < expected {
		select {
		case url := <-deleted:
			urls = append(urls, url)
		case <-time.After(time.Second):
			s.FailNow("timed out waiting for tracked objects to be deleted")
		}
	}
	return urls
}

func (s *ComplianceHandlerSuite) TestGetComplianceResultFailedCleansTrackedObjects() {
	s.tracker.Record("req-42", []string{"https://blob.test/images/a.jpg"})
	deleted := make(chan string, 1)
	s.objects.On("Owns", "https://blob.test/images/a.jpg").Return(true).Once()
	s.objects.On("Delete", mock.Anything, "https://blob.test/images/a.jpg").Return(nil).
		Run(func(args mock.Arguments) { deleted <- args.String(1) }).Once()

	s.cache.On("GetComplianceResult", mock.Anything, "req-42").Return(nil, cache.ErrNotFound)
	s.cache.On("SetComplianceResult", mock.Anything, "req-42", mock.Anything).Return(nil)
	s.workflow.On("GetResult", mock.Anything, "req-42").
		Return(lamatic_client.WorkflowResult{Status: api.StatusFailed, ErrorMsg: "could not read label"}, http.StatusOK, nil)

	code, _, err := s.serveComplianceRouter(s.resultRequest("req-42"))
	s.NoError(err)
	s.Equal(http.StatusOK, code)

	// A failed check reclaims its uploads the same as a successful one.
	s.Equal([]string{"https://blob.test/images/a.jpg"}, s.collectDeletes(deleted, 1))
	s.Eventually(func() bool { return s.tracker.Len() == 0 }, time.Second, 5*time.Millisecond)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.ComplianceChecksTotal.WithLabelValues(api.StatusFailed)))
}

func (s *ComplianceHandlerSuite) TestGetComplianceResultWaitBlocksUntilTerminal() {
	s.cache.On("GetComplianceResult", mock.Anything, "req-42").Return(nil, cache.ErrNotFound)
	s.cache.On("SetComplianceResult", mock.Anything, "req-42", mock.Anything).Return(nil)
	s.workflow.On("GetResult", mock.Anything, "req-42").
		Return(lamatic_client.WorkflowResult{Status: api.StatusProcessing}, http.StatusOK, nil).Twice()
	s.workflow.On("GetResult", mock.Anything, "req-42").
		Return(lamatic_client.WorkflowResult{Status: api.StatusSuccess, Result: json.RawMessage(`{}`)}, http.StatusOK, nil)

	req := httptest.NewRequest(http.MethodGet, api.FullRootPath()+"/compliance_checks/req-42?wait=true", nil)
	code, body, err := s.serveComplianceRouter(req)
	s.NoError(err)
	s.Equal(http.StatusOK, code)

	var resp api.ComplianceResultResponse
	s.NoError(json.Unmarshal(body, &resp))
	s.Equal(api.StatusSuccess, resp.Status)
	s.workflow.AssertNumberOfCalls(s.T(), "GetResult", 3)
}

func (s *ComplianceHandlerSuite) TestGetComplianceResultCached() {
	cached := &api.ComplianceResultResponse{RequestID: "req-42", Status: api.StatusSuccess}
	s.cache.On("GetComplianceResult", mock.Anything, "req-42").Return(cached, nil)

	code, body, err := s.serveComplianceRouter(s.resultRequest("req-42"))
	s.NoError(err)
	s.Equal(http.StatusOK, code)

	var resp api.ComplianceResultResponse
	s.NoError(json.Unmarshal(body, &resp))
	s.Equal(api.StatusSuccess, resp.Status)
	s.workflow.AssertNotCalled(s.T(), "GetResult", mock.Anything, mock.Anything)
}

func (s *ComplianceHandlerSuite) TestGetComplianceResultUpstreamError() {
	s.cache.On("GetComplianceResult", mock.Anything, "req-42").Return(nil, cache.ErrNotFound)
	s.workflow.On("GetResult", mock.Anything, "req-42").
		Return(lamatic_client.WorkflowResult{}, http.StatusBadGateway, errors.New("bad gateway"))

	code, _, err := s.serveComplianceRouter(s.resultRequest("req-42"))
	s.NoError(err)
	s.Equal(http.StatusBadGateway, code)
}
