package repository

import (
	"context"

	"docintake/internal/model"
)

// LedgerRepository is the append-only, queryable history of state transitions.
//
// Append is atomic: a partially written event is never observable, and once
// Append returns, a happens-after History call observes the event. Appends for
// the same document are serialized against each other; appends for different
// documents never contend. The transition legality check runs inside the same
// critical section as the insert — check-and-insert must not interleave with a
// concurrent append for the same document.
type LedgerRepository interface {
	// Append writes one lifecycle event. It returns model.ErrInvalidTransition
	// when the event's from/to pair is illegal given the document's current
	// state.
	Append(ctx context.Context, ev *model.LifecycleEvent) error

	// History returns all events for a document in append order.
	History(ctx context.Context, documentID string) ([]model.LifecycleEvent, error)

	// CurrentState returns the to_state of the latest event, or
	// model.ErrNotFound when the ledger has no events for the id.
	CurrentState(ctx context.Context, documentID string) (model.State, error)
}

// FeedbackRepository persists post-hoc corrections.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *model.Feedback) error
}
