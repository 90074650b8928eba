// Package cache provides a short-lived application cache for workflow
// poll results, absorbing aggressive client polling between upstream calls.
package cache

import (
	"context"
	"errors"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/cannacore/compliance-backend/pkg/config"
	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("not found in cache")

type Cache interface {
	GetComplianceResult(ctx context.Context, requestID string) (*api.ComplianceResultResponse, error)
	SetComplianceResult(ctx context.Context, requestID string, result api.ComplianceResultResponse) error
}

func Initialize() Cache {
	if config.Get().Clients.Redis.Host != "" {
		return NewRedisCache()
	} else {
		log.Logger.Warn().Msg("No application cache in use")
		return NewNoOpCache()
	}
}
