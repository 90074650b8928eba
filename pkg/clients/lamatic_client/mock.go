package lamatic_client

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockLamaticClient struct {
	mock.Mock
}

func (m *MockLamaticClient) ExecuteWorkflow(ctx context.Context, payload WorkflowPayload) (string, int, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Int(1), args.Error(2)
}

func (m *MockLamaticClient) GetResult(ctx context.Context, requestID string) (WorkflowResult, int, error) {
	args := m.Called(ctx, requestID)
	if v, ok := args.Get(0).(WorkflowResult); ok {
		return v, args.Int(1), args.Error(2)
	}
	return WorkflowResult{}, args.Int(1), args.Error(2)
}
