// Package dispatch reacts to action status changes. When a record moves
// into approved, the trigger claims it, runs the executor, and persists the
// terminal outcome. Errors never escape the trigger boundary: failures are
// surfaced only through the persisted status field.
package dispatch

import (
	"context"
	"log"
	"time"

	"action-dispatch-service/internal/executor"
	"action-dispatch-service/internal/feed"
	"action-dispatch-service/internal/models"
	"action-dispatch-service/internal/telemetry"
)

// Store is the slice of persistence the trigger needs.
type Store interface {
	GetAction(ctx context.Context, id string) (models.Action, error)
	ClaimForExecution(ctx context.Context, id string) (bool, error)
	MarkExecuted(ctx context.Context, id, result string, metadata map[string]string, executedAt time.Time) error
	MarkFailed(ctx context.Context, id, result string, executedAt time.Time) error
	AppendAudit(ctx context.Context, actionID, event, detail string) error
}

// Executor runs the provider side effect for one action.
type Executor interface {
	Execute(ctx context.Context, actionID, actionType string, payload map[string]any) (executor.Result, error)
}

// Trigger implements the auto-dispatch rule over status change events.
type Trigger struct {
	store Store
	exec  Executor
	now   func() time.Time
}

// NewTrigger wires the trigger's collaborators.
func NewTrigger(st Store, exec Executor) *Trigger {
	return &Trigger{store: st, exec: exec, now: time.Now}
}

// ShouldDispatch is the transition rule: fire iff the status actually
// changed and the new value is approved. A no-op rewrite of approved does
// not fire.
func ShouldDispatch(before, after string) bool {
	return before != after && after == models.StatusApproved
}

// Handle processes one change event. It performs no store writes unless the
// transition rule fires and the claim succeeds.
func (t *Trigger) Handle(ctx context.Context, ch feed.Change) {
	if !ShouldDispatch(ch.Before, ch.After) {
		telemetry.DispatchSkipped.Inc()
		return
	}

	// Exclusivity guard: exactly one invocation moves approved -> executing.
	// Losing the race means a duplicate event or a racing direct call.
	claimed, err := t.store.ClaimForExecution(ctx, ch.ActionID)
	if err != nil {
		log.Printf("dispatch: claim action=%s: %v", ch.ActionID, err)
		return
	}
	if !claimed {
		log.Printf("dispatch: action=%s no longer approved, skipping", ch.ActionID)
		telemetry.DispatchSkipped.Inc()
		return
	}

	telemetry.InFlightGauge.Inc()
	defer telemetry.InFlightGauge.Dec()

	action, err := t.store.GetAction(ctx, ch.ActionID)
	if err != nil {
		t.recordFailure(ctx, ch.ActionID, "Error: load action: "+err.Error())
		return
	}

	res, err := t.exec.Execute(ctx, action.ID, action.Type, action.Payload)
	if err != nil {
		t.recordFailure(ctx, action.ID, "Error: "+err.Error())
		return
	}

	if err := t.store.MarkExecuted(ctx, action.ID, res.Message, res.Metadata, t.now()); err != nil {
		log.Printf("dispatch: persist result action=%s: %v", action.ID, err)
		return
	}
	_ = t.store.AppendAudit(ctx, action.ID, "executed", res.Message)
	telemetry.ExecutedCounter.Inc()
}

func (t *Trigger) recordFailure(ctx context.Context, actionID, result string) {
	if err := t.store.MarkFailed(ctx, actionID, result, t.now()); err != nil {
		log.Printf("dispatch: persist failure action=%s: %v", actionID, err)
	}
	_ = t.store.AppendAudit(ctx, actionID, "failed", result)
	telemetry.FailedCounter.Inc()
	log.Printf("dispatch: action=%s failed: %s", actionID, result)
}
