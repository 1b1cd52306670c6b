package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"docintake/internal/model"
	"docintake/internal/repository"
)

// LedgerPostgres implements repository.LedgerRepository on an append-only
// lifecycle_events table. Rows are inserted, never updated or deleted;
// BIGSERIAL seq gives the per-document observation order.
//
// Same-document appends are serialized with a transaction-scoped advisory lock
// keyed by document id, so the read-validate-insert cycle is atomic per
// document while unrelated documents proceed in parallel. The transition
// legality itself comes from model.CanTransition; it is enforced here because
// the check must share the insert's critical section.
type LedgerPostgres struct {
	db *sql.DB
}

// NewLedgerPostgres creates a new LedgerPostgres repository.
func NewLedgerPostgres(db *sql.DB) *LedgerPostgres {
	return &LedgerPostgres{db: db}
}

var _ repository.LedgerRepository = (*LedgerPostgres)(nil)

const (
	lockQuery    = `SELECT pg_advisory_xact_lock(hashtext($1))`
	latestQuery  = `SELECT to_state FROM lifecycle_events WHERE document_id = $1 ORDER BY seq DESC LIMIT 1`
	insertQuery  = `INSERT INTO lifecycle_events (document_id, from_state, to_state, ts, agent, notes) VALUES ($1, $2, $3, $4, $5, $6)`
	historyQuery = `SELECT document_id, from_state, to_state, ts, agent, notes FROM lifecycle_events WHERE document_id = $1 ORDER BY seq`
)

// Append writes one event, validating the transition against the document's
// current state inside the same transaction.
func (r *LedgerPostgres) Append(ctx context.Context, ev *model.LifecycleEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, lockQuery, ev.DocumentID); err != nil {
		return fmt.Errorf("acquire document lock: %w", err)
	}

	var current model.State
	err = tx.QueryRowContext(ctx, latestQuery, ev.DocumentID).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First event for this document: it must originate from RECEIVED.
		current = model.StateReceived
	case err != nil:
		return fmt.Errorf("read current state: %w", err)
	}

	if ev.FromState != current || !model.CanTransition(ev.FromState, ev.ToState) {
		return fmt.Errorf("%s: %s -> %s with current state %s: %w",
			ev.DocumentID, ev.FromState, ev.ToState, current, model.ErrInvalidTransition)
	}

	if _, err := tx.ExecContext(ctx, insertQuery,
		ev.DocumentID, ev.FromState, ev.ToState, ev.Timestamp, ev.Agent, ev.Notes,
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// History returns every event for the document in append order.
func (r *LedgerPostgres) History(ctx context.Context, documentID string) ([]model.LifecycleEvent, error) {
	rows, err := r.db.QueryContext(ctx, historyQuery, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.LifecycleEvent, 0)
	for rows.Next() {
		var ev model.LifecycleEvent
		if err := rows.Scan(&ev.DocumentID, &ev.FromState, &ev.ToState, &ev.Timestamp, &ev.Agent, &ev.Notes); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// CurrentState returns the to_state of the latest event.
func (r *LedgerPostgres) CurrentState(ctx context.Context, documentID string) (model.State, error) {
	var state model.State
	err := r.db.QueryRowContext(ctx, latestQuery, documentID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return state, nil
}

// FeedbackPostgres implements repository.FeedbackRepository.
type FeedbackPostgres struct {
	db *sql.DB
}

// NewFeedbackPostgres creates a new FeedbackPostgres repository.
func NewFeedbackPostgres(db *sql.DB) *FeedbackPostgres {
	return &FeedbackPostgres{db: db}
}

var _ repository.FeedbackRepository = (*FeedbackPostgres)(nil)

// Create inserts a feedback row. Corrections are stored as JSONB.
func (r *FeedbackPostgres) Create(ctx context.Context, fb *model.Feedback) error {
	var corrections any
	if len(fb.Corrections) > 0 {
		b, err := json.Marshal(fb.Corrections)
		if err != nil {
			return fmt.Errorf("marshal corrections: %w", err)
		}
		corrections = b
	}

	const q = `INSERT INTO feedback (document_id, corrections, comment, submitted_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, q, fb.DocumentID, corrections, fb.Comment, fb.SubmittedAt); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}
