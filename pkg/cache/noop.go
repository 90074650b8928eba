package cache

import (
	"context"

	"github.com/cannacore/compliance-backend/pkg/api"
)

// A noop cache doesn't actually cache anything, but provides an implementation
// of the caching interfaces
type noOpCache struct {
}

func NewNoOpCache() *noOpCache {
	return &noOpCache{}
}

// GetComplianceResult a NoOp version to fetch a cached poll response
func (c *noOpCache) GetComplianceResult(ctx context.Context, requestID string) (*api.ComplianceResultResponse, error) {
	return nil, ErrNotFound
}

// SetComplianceResult a NoOp version to store a poll response
func (c *noOpCache) SetComplianceResult(ctx context.Context, requestID string, result api.ComplianceResultResponse) error {
	return nil
}
