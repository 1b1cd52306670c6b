package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docintake/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerMock(t *testing.T) (*LedgerPostgres, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewLedgerPostgres(db), mock, func() { db.Close() }
}

func TestLedgerPostgres_AppendFirstEvent(t *testing.T) {
	repo, mock, closeFn := newLedgerMock(t)
	defer closeFn()

	ev := &model.LifecycleEvent{
		DocumentID: "doc-1",
		FromState:  model.StateReceived,
		ToState:    model.StateStored,
		Timestamp:  time.Now().UTC(),
		Agent:      model.AgentGateway,
		Notes:      "File saved",
	}

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT to_state FROM lifecycle_events").
		WithArgs("doc-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO lifecycle_events").
		WithArgs(ev.DocumentID, ev.FromState, ev.ToState, ev.Timestamp, ev.Agent, ev.Notes).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Append(context.Background(), ev)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerPostgres_AppendFollowsCurrentState(t *testing.T) {
	repo, mock, closeFn := newLedgerMock(t)
	defer closeFn()

	ev := &model.LifecycleEvent{
		DocumentID: "doc-1",
		FromState:  model.StateStored,
		ToState:    model.StateInterpreted,
		Timestamp:  time.Now().UTC(),
		Agent:      model.AgentDispatcher,
	}

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT to_state FROM lifecycle_events").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"to_state"}).AddRow("STORED"))
	mock.ExpectExec("INSERT INTO lifecycle_events").
		WithArgs(ev.DocumentID, ev.FromState, ev.ToState, ev.Timestamp, ev.Agent, ev.Notes).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.Append(context.Background(), ev)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerPostgres_AppendInvalidTransition(t *testing.T) {
	tests := []struct {
		name    string
		current string
		ev      model.LifecycleEvent
	}{
		{
			name:    "from state does not match current",
			current: "FAILED",
			ev: model.LifecycleEvent{
				DocumentID: "doc-1",
				FromState:  model.StateStored,
				ToState:    model.StateInterpreted,
			},
		},
		{
			name:    "terminal state accepts nothing",
			current: "FAILED",
			ev: model.LifecycleEvent{
				DocumentID: "doc-1",
				FromState:  model.StateFailed,
				ToState:    model.StateFlagged,
			},
		},
		{
			name:    "skipping a state",
			current: "STORED",
			ev: model.LifecycleEvent{
				DocumentID: "doc-1",
				FromState:  model.StateStored,
				ToState:    model.StateCompleted,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, closeFn := newLedgerMock(t)
			defer closeFn()

			mock.ExpectBegin()
			mock.ExpectExec("SELECT pg_advisory_xact_lock").
				WithArgs("doc-1").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery("SELECT to_state FROM lifecycle_events").
				WithArgs("doc-1").
				WillReturnRows(sqlmock.NewRows([]string{"to_state"}).AddRow(tt.current))
			mock.ExpectRollback()

			err := repo.Append(context.Background(), &tt.ev)

			assert.ErrorIs(t, err, model.ErrInvalidTransition)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLedgerPostgres_AppendFirstEventMustStartAtReceived(t *testing.T) {
	repo, mock, closeFn := newLedgerMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT to_state FROM lifecycle_events").
		WithArgs("doc-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Append(context.Background(), &model.LifecycleEvent{
		DocumentID: "doc-1",
		FromState:  model.StateStored,
		ToState:    model.StateInterpreted,
	})

	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerPostgres_History(t *testing.T) {
	repo, mock, closeFn := newLedgerMock(t)
	defer closeFn()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"document_id", "from_state", "to_state", "ts", "agent", "notes"}).
		AddRow("doc-1", "RECEIVED", "STORED", now, "ingress_gateway", "File saved").
		AddRow("doc-1", "STORED", "INTERPRETED", now.Add(time.Second), "dispatcher", "")

	mock.ExpectQuery("SELECT document_id, from_state, to_state, ts, agent, notes FROM lifecycle_events").
		WithArgs("doc-1").
		WillReturnRows(rows)

	events, err := repo.History(context.Background(), "doc-1")

	assert.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.StateStored, events[0].ToState)
	assert.Equal(t, model.AgentDispatcher, events[1].Agent)
}

func TestLedgerPostgres_CurrentState(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, closeFn := newLedgerMock(t)
		defer closeFn()

		mock.ExpectQuery("SELECT to_state FROM lifecycle_events").
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"to_state"}).AddRow("COMPLETED"))

		state, err := repo.CurrentState(context.Background(), "doc-1")

		assert.NoError(t, err)
		assert.Equal(t, model.StateCompleted, state)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, closeFn := newLedgerMock(t)
		defer closeFn()

		mock.ExpectQuery("SELECT to_state FROM lifecycle_events").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.CurrentState(context.Background(), "missing")

		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock, closeFn := newLedgerMock(t)
		defer closeFn()

		mock.ExpectQuery("SELECT to_state FROM lifecycle_events").
			WithArgs("doc-1").
			WillReturnError(errors.New("db down"))

		_, err := repo.CurrentState(context.Background(), "doc-1")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrNotFound)
	})
}

func TestFeedbackPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFeedbackPostgres(db)
	now := time.Now().UTC()

	t.Run("with corrections", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO feedback").
			WithArgs("doc-1", []byte(`{"brand":"Acme"}`), "wrong brand", now).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(context.Background(), &model.Feedback{
			DocumentID:  "doc-1",
			Corrections: map[string]string{"brand": "Acme"},
			Comment:     "wrong brand",
			SubmittedAt: now,
		})

		assert.NoError(t, err)
	})

	t.Run("comment only stores null corrections", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO feedback").
			WithArgs("doc-2", nil, "looks off", now).
			WillReturnResult(sqlmock.NewResult(2, 1))

		err := repo.Create(context.Background(), &model.Feedback{
			DocumentID:  "doc-2",
			Comment:     "looks off",
			SubmittedAt: now,
		})

		assert.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
