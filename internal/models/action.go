package models

import (
	"time"
)

// Action statuses persisted in Postgres.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusExecuting = "executing"
	StatusExecuted  = "executed"
	StatusFailed    = "failed"
)

// Action types the executor knows how to dispatch.
const (
	TypeCalendar = "calendar"
	TypeEmail    = "email"
	TypeSheets   = "sheets"
	TypeDocs     = "docs"
)

// TerminalStatuses lists states after which no automatic transition happens.
// Records in these states become eligible for retention sweeping.
var TerminalStatuses = []string{StatusRejected, StatusExecuted, StatusFailed}

// IsTerminal reports whether a status is final.
func IsTerminal(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Action represents a unit of approved work persisted in Postgres.
type Action struct {
	ID              string            `json:"id"`
	Type            string            `json:"action_type"`
	Payload         map[string]any    `json:"payload"`
	Status          string            `json:"status"`
	ExecutionResult *string           `json:"execution_result,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	ExecutedAt      *time.Time        `json:"executed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// AuditLog is a simple audit event row.
type AuditLog struct {
	ActionID string    `json:"action_id"`
	Event    string    `json:"event"`
	Detail   string    `json:"detail"`
	Recorded time.Time `json:"recorded_at"`
}
