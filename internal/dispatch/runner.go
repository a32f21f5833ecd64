package dispatch

import (
	"context"
	"log"
	"time"

	"action-dispatch-service/internal/config"
	"action-dispatch-service/internal/feed"
	"action-dispatch-service/internal/telemetry"
)

// Feed is the change-event source the runner consumes.
type Feed interface {
	Next(ctx context.Context, block time.Duration) (feed.Change, bool, error)
	Depth(ctx context.Context) (int64, error)
}

// Runner drives the dispatcher loop: pop a change event, hand it to the
// trigger, repeat until context cancellation.
type Runner struct {
	cfg     config.Config
	feed    Feed
	trigger *Trigger
}

func NewRunner(cfg config.Config, f Feed, t *Trigger) *Runner {
	return &Runner{cfg: cfg, feed: f, trigger: t}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	poll := r.cfg.DispatchPollInterval
	if poll == 0 {
		poll = time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if depth, err := r.feed.Depth(ctx); err == nil {
			telemetry.FeedDepthGauge.Set(float64(depth))
		}

		ch, ok, err := r.feed.Next(ctx, poll)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("dispatch: read feed: %v", err)
			time.Sleep(poll)
			continue
		}
		if !ok {
			continue
		}

		r.trigger.Handle(ctx, ch)
	}
}
