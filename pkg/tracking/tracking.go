// Package tracking associates submitted workflow jobs with the storage
// URLs they consumed, so the objects can be reclaimed once the job reaches
// a terminal state.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/cannacore/compliance-backend/pkg/instrumentation"
	"github.com/cannacore/compliance-backend/pkg/storage"
	"github.com/rs/zerolog/log"
)

type trackedSubmission struct {
	objectUrls []string
	createdAt  time.Time
}

// Registry is the process-wide map of job id to consumed storage URLs.
// Injectable so tests can construct isolated instances and drive the clock.
type Registry struct {
	mu          sync.Mutex
	submissions map[string]*trackedSubmission
	objects     storage.ObjectStorage
	retention   time.Duration
	nowFunc     func() time.Time

	// Metrics is optional; nil disables counting.
	Metrics *instrumentation.Metrics
}

func NewRegistry(objects storage.ObjectStorage, retention time.Duration) *Registry {
	return &Registry{
		submissions: make(map[string]*trackedSubmission),
		objects:     objects,
		retention:   retention,
		nowFunc:     time.Now,
	}
}

// Record associates freshly uploaded URLs with a submitted job id.
func (r *Registry) Record(jobID string, urls []string) {
	if jobID == "" || len(urls) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions[jobID] = &trackedSubmission{
		objectUrls: urls,
		createdAt:  r.nowFunc(),
	}
}

// Resolve reclaims the storage behind a job that reached a terminal state,
// success or failure alike. Only URLs owned by the storage backend are
// deleted; individual delete failures are logged and the batch continues.
// The tracking entry is removed regardless of delete outcomes.
func (r *Registry) Resolve(ctx context.Context, jobID string) {
	r.mu.Lock()
	sub, ok := r.submissions[jobID]
	if ok {
		delete(r.submissions, jobID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	deleted := 0
	for _, url := range sub.objectUrls {
		if url == "" || !r.objects.Owns(url) {
			continue
		}
		if err := r.objects.Delete(ctx, url); err != nil {
			r.Metrics.RecordCleanupFailure()
			log.Error().Err(err).Str("job_id", jobID).Str("url", url).Msg("failed to delete tracked object")
			continue
		}
		deleted++
	}
	log.Info().Str("job_id", jobID).Int("deleted", deleted).Msg("tracked submission cleaned up")
}

// SweepExpired drops tracking entries past the retention window without
// touching storage; an entry that old belongs to a job whose completion
// was never observed, and its objects are left to bucket lifecycle policy.
func (r *Registry) SweepExpired() int {
	now := r.nowFunc()
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, sub := range r.submissions {
		if now.Sub(sub.createdAt) > r.retention {
			delete(r.submissions, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked submissions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.submissions)
}
