package lamatic_client

import (
	"context"
	"time"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/rs/zerolog/log"
)

// Poller drives a submitted job to a terminal state with a ticker instead
// of a blocking loop, so a caller can abandon it through its context
// without leaking the timer.
type Poller struct {
	Client   LamaticClient
	Interval time.Duration
}

func NewPoller(client LamaticClient, interval time.Duration) *Poller {
	return &Poller{Client: client, Interval: interval}
}

// Wait polls until the job reaches success or failed, or ctx is done.
// Poll errors are logged and retried on the next tick; only the context
// ends the loop early.
func (p *Poller) Wait(ctx context.Context, requestID string) (WorkflowResult, error) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		result, _, err := p.Client.GetResult(ctx, requestID)
		if err != nil {
			log.Warn().Err(err).Str("request_id", requestID).Msg("poll attempt failed")
		} else if api.TerminalStatus(result.Status) {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return WorkflowResult{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
