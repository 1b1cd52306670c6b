package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docintake/internal/model"
	"docintake/internal/repository"
)

// StatusResult is the full audit view of one document: its current state and
// every recorded transition, oldest first. Document is nil for submissions
// that were rejected before a document row was created.
type StatusResult struct {
	DocumentID   string                 `json:"document_id"`
	CurrentState model.State            `json:"current_state"`
	Document     *model.Document        `json:"document,omitempty"`
	History      []model.LifecycleEvent `json:"history"`
}

// FeedbackRequest carries reviewer corrections for a completed document.
type FeedbackRequest struct {
	Corrections map[string]string `json:"corrections"`
	Comment     string            `json:"comment"`
}

// StatusService exposes the read side of the ledger and the feedback flow.
type StatusService interface {
	// GetStatus returns the current state and transition history of a document.
	GetStatus(ctx context.Context, documentID string) (*StatusResult, error)

	// SubmitFeedback records reviewer feedback and flags the document for
	// re-review. Only completed documents accept feedback.
	SubmitFeedback(ctx context.Context, documentID string, req FeedbackRequest) error
}

type statusService struct {
	docs     repository.DocumentRepository
	ledger   repository.LedgerRepository
	feedback repository.FeedbackRepository
}

// NewStatusService constructs a StatusService.
func NewStatusService(docs repository.DocumentRepository, ledger repository.LedgerRepository, feedback repository.FeedbackRepository) StatusService {
	return &statusService{docs: docs, ledger: ledger, feedback: feedback}
}

func (s *statusService) GetStatus(ctx context.Context, documentID string) (*StatusResult, error) {
	if documentID == "" {
		return nil, model.ErrInvalidInput
	}

	history, err := s.ledger.History(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(history) == 0 {
		return nil, model.ErrNotFound
	}

	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return &StatusResult{
		DocumentID:   documentID,
		CurrentState: history[len(history)-1].ToState,
		Document:     doc,
		History:      history,
	}, nil
}

func (s *statusService) SubmitFeedback(ctx context.Context, documentID string, req FeedbackRequest) error {
	if documentID == "" {
		return model.ErrInvalidInput
	}
	if len(req.Corrections) == 0 && req.Comment == "" {
		return fmt.Errorf("corrections or comment required: %w", model.ErrInvalidInput)
	}

	current, err := s.ledger.CurrentState(ctx, documentID)
	if err != nil {
		return err
	}
	if !current.Completed() {
		return fmt.Errorf("document is %s: %w", current, model.ErrInvalidState)
	}

	now := time.Now().UTC()
	if err := s.feedback.Create(ctx, &model.Feedback{
		DocumentID:  documentID,
		Corrections: req.Corrections,
		Comment:     req.Comment,
		SubmittedAt: now,
	}); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}

	ev := &model.LifecycleEvent{
		DocumentID: documentID,
		FromState:  current,
		ToState:    model.StateFlagged,
		Timestamp:  now,
		Agent:      model.AgentFeedback,
		Notes:      "Feedback received",
	}
	if err := s.ledger.Append(ctx, ev); err != nil {
		return fmt.Errorf("flag document: %w", err)
	}
	return nil
}
