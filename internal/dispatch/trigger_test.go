package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"action-dispatch-service/internal/executor"
	"action-dispatch-service/internal/feed"
	"action-dispatch-service/internal/models"
)

type fakeStore struct {
	action models.Action

	claims      int
	claimResult bool
	claimErr    error

	executedResult string
	executedMeta   map[string]string
	failedResult   string
	writes         int
}

func (f *fakeStore) GetAction(_ context.Context, id string) (models.Action, error) {
	if f.action.ID != id {
		return models.Action{}, errors.New("action not found")
	}
	return f.action, nil
}

func (f *fakeStore) ClaimForExecution(_ context.Context, id string) (bool, error) {
	f.claims++
	if f.claimErr != nil {
		return false, f.claimErr
	}
	if f.claimResult {
		f.writes++
	}
	return f.claimResult, nil
}

func (f *fakeStore) MarkExecuted(_ context.Context, id, result string, metadata map[string]string, _ time.Time) error {
	f.executedResult = result
	f.executedMeta = metadata
	f.writes++
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id, result string, _ time.Time) error {
	f.failedResult = result
	f.writes++
	return nil
}

func (f *fakeStore) AppendAudit(context.Context, string, string, string) error { return nil }

type fakeExec struct {
	calls  int
	result executor.Result
	err    error
}

func (f *fakeExec) Execute(_ context.Context, actionID, actionType string, _ map[string]any) (executor.Result, error) {
	f.calls++
	return f.result, f.err
}

func approvedAction() models.Action {
	return models.Action{
		ID:      "act-1",
		Type:    models.TypeCalendar,
		Status:  models.StatusApproved,
		Payload: map[string]any{"eventName": "Sync"},
	}
}

func TestShouldDispatch(t *testing.T) {
	tests := []struct {
		before, after string
		want          bool
	}{
		{"pending", "approved", true},
		{"rejected", "approved", true},
		{"approved", "approved", false},
		{"pending", "rejected", false},
		{"pending", "pending", false},
		{"approved", "executing", false},
	}
	for _, tt := range tests {
		if got := ShouldDispatch(tt.before, tt.after); got != tt.want {
			t.Errorf("ShouldDispatch(%q, %q)=%v, want %v", tt.before, tt.after, got, tt.want)
		}
	}
}

func TestHandle_UnchangedStatusDoesNothing(t *testing.T) {
	st := &fakeStore{action: approvedAction()}
	ex := &fakeExec{}
	tr := NewTrigger(st, ex)

	tr.Handle(context.Background(), feed.Change{ActionID: "act-1", Before: "approved", After: "approved"})

	if ex.calls != 0 {
		t.Fatalf("executor invoked %d times on no-op rewrite", ex.calls)
	}
	if st.writes != 0 || st.claims != 0 {
		t.Fatalf("store touched: claims=%d writes=%d", st.claims, st.writes)
	}
}

func TestHandle_ApprovedTransitionExecutesOnce(t *testing.T) {
	st := &fakeStore{action: approvedAction(), claimResult: true}
	ex := &fakeExec{result: executor.Result{
		Message:  "Created calendar event",
		Metadata: map[string]string{"eventId": "evt-1"},
	}}
	tr := NewTrigger(st, ex)

	tr.Handle(context.Background(), feed.Change{ActionID: "act-1", Before: "pending", After: "approved"})

	if ex.calls != 1 {
		t.Fatalf("executor calls=%d, want 1", ex.calls)
	}
	if st.executedResult != "Created calendar event" {
		t.Fatalf("executedResult=%q", st.executedResult)
	}
	if st.executedMeta["eventId"] != "evt-1" {
		t.Fatalf("metadata=%v", st.executedMeta)
	}
	if st.failedResult != "" {
		t.Fatalf("unexpected failure write: %q", st.failedResult)
	}
}

func TestHandle_LostClaimSkipsExecution(t *testing.T) {
	// Duplicate delivery: the second claim sees the record already past
	// approved and must not re-execute.
	st := &fakeStore{action: approvedAction(), claimResult: false}
	ex := &fakeExec{}
	tr := NewTrigger(st, ex)

	tr.Handle(context.Background(), feed.Change{ActionID: "act-1", Before: "pending", After: "approved"})

	if st.claims != 1 {
		t.Fatalf("claims=%d", st.claims)
	}
	if ex.calls != 0 {
		t.Fatalf("executor invoked despite lost claim")
	}
	if st.writes != 0 {
		t.Fatalf("writes=%d, want 0", st.writes)
	}
}

func TestHandle_ExecutionFailureWritesFailed(t *testing.T) {
	st := &fakeStore{action: approvedAction(), claimResult: true}
	ex := &fakeExec{err: errors.New("provider unavailable")}
	tr := NewTrigger(st, ex)

	tr.Handle(context.Background(), feed.Change{ActionID: "act-1", Before: "pending", After: "approved"})

	if !strings.Contains(st.failedResult, "provider unavailable") {
		t.Fatalf("failedResult=%q", st.failedResult)
	}
	if st.executedResult != "" {
		t.Fatalf("success write after failure: %q", st.executedResult)
	}
}

func TestHandle_ClaimErrorDoesNotPanic(t *testing.T) {
	st := &fakeStore{action: approvedAction(), claimErr: errors.New("connection reset")}
	ex := &fakeExec{}
	tr := NewTrigger(st, ex)

	// Must not panic or invoke the executor; the error stays inside the
	// trigger boundary.
	tr.Handle(context.Background(), feed.Change{ActionID: "act-1", Before: "pending", After: "approved"})

	if ex.calls != 0 {
		t.Fatalf("executor invoked despite claim error")
	}
}

func TestHandle_MissingActionMarksFailed(t *testing.T) {
	st := &fakeStore{action: approvedAction(), claimResult: true}
	ex := &fakeExec{}
	tr := NewTrigger(st, ex)

	tr.Handle(context.Background(), feed.Change{ActionID: "act-gone", Before: "pending", After: "approved"})

	if ex.calls != 0 {
		t.Fatalf("executor invoked for missing action")
	}
	if !strings.Contains(st.failedResult, "load action") {
		t.Fatalf("failedResult=%q", st.failedResult)
	}
}
