// Package sweeper deletes terminal actions older than the retention window.
package sweeper

import (
	"context"
	"log"
	"time"

	"action-dispatch-service/internal/models"
	"action-dispatch-service/internal/telemetry"
)

// Store is the slice of persistence the sweeper needs.
type Store interface {
	ExpiredTerminal(ctx context.Context, statuses []string, createdBefore time.Time) ([]models.Action, error)
	DeleteBatch(ctx context.Context, ids []string) (int64, error)
}

// Archiver receives swept records before they are deleted. Optional.
type Archiver interface {
	Archive(ctx context.Context, when time.Time, actions []models.Action) (string, error)
}

// Sweeper removes expired terminal actions on a fixed schedule.
type Sweeper struct {
	store     Store
	archiver  Archiver
	retention time.Duration
	now       func() time.Time
}

// New builds a sweeper with the given retention window. archiver may be nil.
func New(st Store, archiver Archiver, retention time.Duration) *Sweeper {
	if retention == 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Sweeper{store: st, archiver: archiver, retention: retention, now: time.Now}
}

// SweepOnce deletes all terminal actions older than the retention cutoff and
// returns how many were removed. When archival is configured and fails, the
// batch is left in place for the next run.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)

	expired, err := s.store.ExpiredTerminal(ctx, models.TerminalStatuses, cutoff)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, s.now(), expired)
		if err != nil {
			return 0, err
		}
		log.Printf("sweeper: archived %d action(s) to %s", len(expired), key)
	}

	ids := make([]string, 0, len(expired))
	for _, a := range expired {
		ids = append(ids, a.ID)
	}
	deleted, err := s.store.DeleteBatch(ctx, ids)
	if err != nil {
		return 0, err
	}
	telemetry.SweptCounter.Add(float64(deleted))
	return deleted, nil
}

// Run sweeps on the given interval until context cancellation. Sweep errors
// are logged, never fatal to the schedule.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	if interval == 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
				continue
			}
			log.Printf("sweeper: cleaned up %d old action(s)", n)
		}
	}
}
