package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"action-dispatch-service/internal/apperr"
	"action-dispatch-service/internal/auth"
	"action-dispatch-service/internal/config"
	"action-dispatch-service/internal/executor"
	"action-dispatch-service/internal/feed"
	"action-dispatch-service/internal/models"
	"action-dispatch-service/internal/ratelimit"
	"action-dispatch-service/internal/store"
	"action-dispatch-service/internal/telemetry"
)

// Store is the persistence surface the HTTP handlers need.
type Store interface {
	CreateAction(ctx context.Context, p store.CreateActionParams) (models.Action, error)
	GetAction(ctx context.Context, id string) (models.Action, error)
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	MarkExecuted(ctx context.Context, id, result string, metadata map[string]string, executedAt time.Time) error
	MarkFailed(ctx context.Context, id, result string, executedAt time.Time) error
	AppendAudit(ctx context.Context, actionID, event, detail string) error
}

// Feed receives status change events for the dispatcher.
type Feed interface {
	Publish(ctx context.Context, ch feed.Change) error
}

// Executor runs an action's side effect synchronously for direct calls.
type Executor interface {
	Execute(ctx context.Context, actionID, actionType string, payload map[string]any) (executor.Result, error)
}

// Server wires HTTP handlers for the action API.
type Server struct {
	cfg      config.Config
	store    Store
	feed     Feed
	exec     Executor
	verifier auth.Verifier
	limiter  *ratelimit.TokenBucket
	now      func() time.Time
}

// New constructs the API server. limiter may be nil to disable throttling.
func New(cfg config.Config, st Store, f Feed, exec Executor, verifier auth.Verifier, limiter *ratelimit.TokenBucket) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		feed:     f,
		exec:     exec,
		verifier: verifier,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/metrics", telemetry.Handler())

	r.Post("/actions", s.handleCreate)
	r.Get("/actions/{id}", s.handleGet)
	r.Post("/actions/{id}/approve", s.handleApprove)
	r.Post("/actions/{id}/reject", s.handleReject)

	r.Route("/execute", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/calendar", s.handleExecute(models.TypeCalendar))
		r.Post("/email", s.handleExecute(models.TypeEmail))
		r.Post("/sheets", s.handleExecute(models.TypeSheets))
		r.Post("/docs", s.handleExecute(models.TypeDocs))
	})

	return r
}

type ctxKey string

const callerKey ctxKey = "caller"

// requireAuth verifies the bearer token and stashes the caller uid.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			writeError(w, apperr.New(apperr.Unauthenticated, "missing bearer token"))
			return
		}
		uid, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			writeError(w, apperr.Wrap(apperr.Unauthenticated, err))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, uid)))
	})
}

func callerFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(callerKey).(string)
	return uid
}

type createRequest struct {
	ActionType string         `json:"actionType"`
	Payload    map[string]any `json:"payload"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.InvalidArgument, "invalid json"))
		return
	}
	switch req.ActionType {
	case models.TypeCalendar, models.TypeEmail, models.TypeSheets, models.TypeDocs:
	default:
		writeError(w, apperr.Newf(apperr.InvalidArgument, "unsupported actionType %q", req.ActionType))
		return
	}

	action, err := s.store.CreateAction(r.Context(), store.CreateActionParams{
		Type:    req.ActionType,
		Payload: req.Payload,
	})
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Internal, err))
		return
	}
	_ = s.store.AppendAudit(r.Context(), action.ID, "created", "type="+action.Type)
	writeJSON(w, http.StatusCreated, action)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action, err := s.store.GetAction(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "action not found", http.StatusNotFound)
			return
		}
		writeError(w, apperr.Wrap(apperr.Internal, err))
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// handleApprove moves a pending action to approved and publishes the status
// change so the dispatcher picks it up. Re-approving is a conflict, which
// also means a duplicate approve cannot re-trigger execution.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.store.TransitionStatus(r.Context(), id, models.StatusPending, models.StatusApproved)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Internal, err))
		return
	}
	if !ok {
		http.Error(w, "action is not pending", http.StatusConflict)
		return
	}

	change := feed.Change{ActionID: id, Before: models.StatusPending, After: models.StatusApproved}
	if err := s.feed.Publish(r.Context(), change); err != nil {
		// Without the change event the dispatcher will never see this
		// action, so roll the transition back to keep approve retryable.
		if _, revertErr := s.store.TransitionStatus(r.Context(), id, models.StatusApproved, models.StatusPending); revertErr != nil {
			log.Printf("api: revert approve action=%s: %v", id, revertErr)
		}
		writeError(w, apperr.Wrap(apperr.Internal, fmt.Errorf("publish change: %w", err)))
		return
	}
	_ = s.store.AppendAudit(r.Context(), id, "approved", "approved via API")
	writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusApproved})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.store.TransitionStatus(r.Context(), id, models.StatusPending, models.StatusRejected)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Internal, err))
		return
	}
	if !ok {
		http.Error(w, "action is not pending", http.StatusConflict)
		return
	}
	_ = s.store.AppendAudit(r.Context(), id, "rejected", "rejected via API")
	writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusRejected})
}

type executeRequest struct {
	ActionID string         `json:"actionId"`
	Payload  map[string]any `json:"payload"`
}

// handleExecute runs the action synchronously and persists the terminal
// outcome, mirroring the trigger path's update contract.
func (s *Server) handleExecute(actionType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.New(apperr.InvalidArgument, "invalid json"))
			return
		}
		if req.ActionID == "" {
			writeError(w, apperr.New(apperr.InvalidArgument, "actionId is required"))
			return
		}

		// Validation fails fast, before any store write.
		if err := models.ValidatePayload(actionType, req.Payload); err != nil {
			writeError(w, apperr.Wrap(apperr.InvalidArgument, err))
			return
		}

		if s.limiter != nil {
			caller := callerFromContext(r.Context())
			allowed, _, err := s.limiter.Allow(r.Context(), caller)
			if err != nil {
				writeError(w, apperr.Wrap(apperr.Internal, err))
				return
			}
			if !allowed {
				telemetry.RateLimitRejects.Inc()
				http.Error(w, "rate limited", http.StatusTooManyRequests)
				return
			}
		}

		telemetry.DirectCalls.Inc()
		res, err := s.exec.Execute(r.Context(), req.ActionID, actionType, req.Payload)
		if err != nil {
			// Record the failure, then surface it to the caller.
			if markErr := s.store.MarkFailed(r.Context(), req.ActionID, "Error: "+err.Error(), s.now()); markErr != nil {
				err = fmt.Errorf("%w (record failure: %v)", err, markErr)
			}
			_ = s.store.AppendAudit(r.Context(), req.ActionID, "failed", err.Error())
			telemetry.FailedCounter.Inc()
			writeError(w, apperr.Wrap(apperr.Internal, err))
			return
		}

		if err := s.store.MarkExecuted(r.Context(), req.ActionID, res.Message, res.Metadata, s.now()); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, apperr.Newf(apperr.InvalidArgument, "action %q not found", req.ActionID))
				return
			}
			writeError(w, apperr.Wrap(apperr.Internal, err))
			return
		}
		_ = s.store.AppendAudit(r.Context(), req.ActionID, "executed", "direct call by "+callerFromContext(r.Context()))
		telemetry.ExecutedCounter.Inc()

		body := map[string]any{
			"success": true,
			"message": res.Message,
		}
		for k, v := range res.Metadata {
			body[k] = v
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	writeJSON(w, apperr.HTTPStatus(kind), map[string]string{
		"error": err.Error(),
		"code":  kind.String(),
	})
}
