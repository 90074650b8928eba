package cache

import (
	"context"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetComplianceResult(ctx context.Context, requestID string) (*api.ComplianceResultResponse, error) {
	args := m.Called(ctx, requestID)
	if v, ok := args.Get(0).(*api.ComplianceResultResponse); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCache) SetComplianceResult(ctx context.Context, requestID string, result api.ComplianceResultResponse) error {
	args := m.Called(ctx, requestID, result)
	return args.Error(0)
}
