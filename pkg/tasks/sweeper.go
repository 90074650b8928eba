// Package tasks holds the background loops that keep the in-memory
// stores bounded: expired upload sessions and stale tracked submissions
// are evicted on independent timers.
package tasks

import (
	"context"
	"time"

	"github.com/cannacore/compliance-backend/pkg/instrumentation"
	"github.com/cannacore/compliance-backend/pkg/tracking"
	"github.com/cannacore/compliance-backend/pkg/uploads"
	"github.com/rs/zerolog/log"
)

type Sweeper struct {
	context context.Context
	store   *uploads.ChunkStore
	tracker *tracking.Registry
	metrics *instrumentation.Metrics

	sessionInterval  time.Duration
	trackingInterval time.Duration
}

func NewSweeper(ctx context.Context, store *uploads.ChunkStore, tracker *tracking.Registry,
	metrics *instrumentation.Metrics, sessionInterval time.Duration, trackingInterval time.Duration) *Sweeper {
	if ctx == nil || store == nil || tracker == nil {
		return nil
	}
	return &Sweeper{
		context:          ctx,
		store:            store,
		tracker:          tracker,
		metrics:          metrics,
		sessionInterval:  sessionInterval,
		trackingInterval: trackingInterval,
	}
}

func (s *Sweeper) sweepSessions() {
	if evicted := s.store.SweepExpired(); evicted > 0 {
		log.Info().Int("evicted", evicted).Msg("Evicted expired upload sessions")
		if s.metrics != nil {
			s.metrics.UploadSessionsExpired.Add(float64(evicted))
		}
	}
}

// sweepTracking drops stale registry entries only. The objects they
// reference stay in the bucket for its lifecycle policy to reclaim.
func (s *Sweeper) sweepTracking() {
	if evicted := s.tracker.SweepExpired(); evicted > 0 {
		log.Info().Int("evicted", evicted).Msg("Evicted stale tracked submissions")
	}
	if s.metrics != nil {
		s.metrics.TrackedSubmissions.Set(float64(s.tracker.Len()))
	}
}

func (s *Sweeper) Run() {
	log.Info().Msg("Starting sweeper go routine")
	sessionTicker := time.NewTicker(s.sessionInterval)
	trackingTicker := time.NewTicker(s.trackingInterval)
	for {
		select {
		case <-sessionTicker.C:
			s.sweepSessions()
		case <-trackingTicker.C:
			s.sweepTracking()
		case <-s.context.Done():
			log.Info().Msg("Stopping sweeper go routine")
			sessionTicker.Stop()
			trackingTicker.Stop()
			return
		}
	}
}
