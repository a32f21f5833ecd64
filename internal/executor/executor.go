// Package executor performs the provider-specific side effect for an action
// and shapes the human-readable result persisted on the record.
package executor

import (
	"context"
	"fmt"
	"time"

	"action-dispatch-service/internal/models"
)

// Result is what a completed execution writes back to the action record.
type Result struct {
	Message  string
	Metadata map[string]string
}

// Handler executes one action type against its provider.
type Handler func(ctx context.Context, actionID string, payload map[string]any) (Result, error)

// Executor dispatches actions to per-type handlers.
type Executor struct {
	handlers map[string]Handler
	clients  Clients
	loc      *time.Location
	now      func() time.Time
}

// New builds an executor over the provider clients. Calendar date/time
// fields are interpreted in loc.
func New(clients Clients, loc *time.Location) *Executor {
	if loc == nil {
		loc = time.UTC
	}
	e := &Executor{
		clients: clients,
		loc:     loc,
		now:     time.Now,
	}
	e.handlers = map[string]Handler{
		models.TypeCalendar: e.executeCalendar,
		models.TypeEmail:    e.executeEmail,
		models.TypeSheets:   e.executeSheets,
		models.TypeDocs:     e.executeDocs,
	}
	return e
}

// Execute runs the handler for actionType. An unrecognized type completes
// as a no-op rather than failing, so stale records with retired types do
// not wedge the dispatcher.
func (e *Executor) Execute(ctx context.Context, actionID, actionType string, payload map[string]any) (Result, error) {
	handler, ok := e.handlers[actionType]
	if !ok {
		return Result{
			Message: fmt.Sprintf("Action type %q is not recognized; nothing was executed", actionType),
		}, nil
	}
	return handler(ctx, actionID, payload)
}
