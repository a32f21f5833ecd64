package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"action-dispatch-service/internal/models"
)

// ErrNotFound is returned when an action id has no row.
var ErrNotFound = errors.New("action not found")

// Store wraps pgxpool for Postgres persistence.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a pooled connection to Postgres.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateActionParams collects inputs required to insert an action.
type CreateActionParams struct {
	Type    string
	Payload map[string]any
}

// CreateAction inserts a pending action row and returns it.
func (s *Store) CreateAction(ctx context.Context, p CreateActionParams) (models.Action, error) {
	if p.Payload == nil {
		p.Payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(p.Payload)
	if err != nil {
		return models.Action{}, fmt.Errorf("marshal payload: %w", err)
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO actions (id, action_type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, id, p.Type, payloadJSON, models.StatusPending, now)
	if err != nil {
		return models.Action{}, fmt.Errorf("insert action: %w", err)
	}

	return models.Action{
		ID:        id,
		Type:      p.Type,
		Payload:   p.Payload,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetAction fetches an action by id.
func (s *Store) GetAction(ctx context.Context, id string) (models.Action, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, action_type, payload, status, execution_result, metadata, executed_at, created_at, updated_at
		FROM actions WHERE id = $1
	`, id)
	return scanAction(row)
}

// TransitionStatus moves an action from one status to another. It reports
// whether the row was actually updated: a false return means the action was
// not in the expected prior status, so the caller lost the race (or the
// transition was a no-op rewrite).
func (s *Store) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE actions SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("transition %s -> %s: %w", from, to, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClaimForExecution atomically moves an approved action into executing.
// Exactly one concurrent claimer wins; everyone else sees false.
func (s *Store) ClaimForExecution(ctx context.Context, id string) (bool, error) {
	return s.TransitionStatus(ctx, id, models.StatusApproved, models.StatusExecuting)
}

// MarkExecuted writes the terminal success state in a single update:
// status, result string, provider metadata, and execution timestamp.
// Returns ErrNotFound when the id matches no row.
func (s *Store) MarkExecuted(ctx context.Context, id, result string, metadata map[string]string, executedAt time.Time) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE actions
		SET status = $2, execution_result = $3, metadata = $4, executed_at = $5, updated_at = NOW()
		WHERE id = $1
	`, id, models.StatusExecuted, result, metaJSON, executedAt)
	if err != nil {
		return fmt.Errorf("mark executed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed writes the terminal failure state in a single update.
// Returns ErrNotFound when the id matches no row.
func (s *Store) MarkFailed(ctx context.Context, id, result string, executedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE actions
		SET status = $2, execution_result = $3, executed_at = $4, updated_at = NOW()
		WHERE id = $1
	`, id, models.StatusFailed, result, executedAt)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpiredTerminal returns actions in any of the given statuses created
// before the cutoff. Used by the retention sweeper.
func (s *Store) ExpiredTerminal(ctx context.Context, statuses []string, createdBefore time.Time) ([]models.Action, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, action_type, payload, status, execution_result, metadata, executed_at, created_at, updated_at
		FROM actions
		WHERE status = ANY($1) AND created_at < $2
		ORDER BY created_at
	`, statuses, createdBefore)
	if err != nil {
		return nil, fmt.Errorf("query expired actions: %w", err)
	}
	defer rows.Close()

	var out []models.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteBatch removes the given actions in a single statement, so the batch
// is all-or-nothing. Returns the number of rows deleted.
func (s *Store) DeleteBatch(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM actions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete actions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AppendAudit adds an audit row.
func (s *Store) AppendAudit(ctx context.Context, actionID, event, detail string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_logs (action_id, event, detail, ts)
		VALUES ($1, $2, $3, NOW())
	`, actionID, event, detail)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (models.Action, error) {
	var a models.Action
	var payloadJSON []byte
	var metaJSON []byte
	var result pgtype.Text
	var executedAt pgtype.Timestamptz

	err := row.Scan(&a.ID, &a.Type, &payloadJSON, &a.Status, &result, &metaJSON, &executedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Action{}, ErrNotFound
	}
	if err != nil {
		return models.Action{}, fmt.Errorf("scan action: %w", err)
	}

	if err := json.Unmarshal(payloadJSON, &a.Payload); err != nil {
		return models.Action{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &a.Metadata); err != nil {
			return models.Action{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if result.Valid {
		a.ExecutionResult = &result.String
	}
	if executedAt.Valid {
		t := executedAt.Time
		a.ExecutedAt = &t
	}
	return a, nil
}
