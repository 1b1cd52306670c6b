package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"docintake/internal/content"
	"docintake/internal/extractor"
	"docintake/internal/model"
	"docintake/internal/queue"
	"docintake/internal/repository"
)

// Processor is plugged into the asynq worker loop. It drives a stored
// document through interpretation and records every step in the ledger.
type Processor struct {
	ledger    repository.LedgerRepository
	contents  *content.Store
	extractor extractor.Extractor
}

// NewProcessor constructs a worker processor.
func NewProcessor(ledger repository.LedgerRepository, contents *content.Store, ex extractor.Extractor) *Processor {
	return &Processor{ledger: ledger, contents: contents, extractor: ex}
}

// Handler registers the extract job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ExtractDocumentTask, p.handleExtract)
	return mux
}

// handleExtract processes one stored document. Delivery is at least once, so
// the handler first reads the current state: STORED runs the full sequence,
// INTERPRETED means a previous delivery crashed between ledger writes and is
// resumed from extraction, and anything else is a completed duplicate that is
// acknowledged without side effects.
//
// Extraction failures are terminal: the error is written to the ledger as
// FAILED and the task is acknowledged. Only infrastructure errors that occur
// before any state is written are returned, letting asynq redeliver the task.
func (p *Processor) handleExtract(ctx context.Context, task *asynq.Task) error {
	var payload queue.ExtractPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	state, err := p.ledger.CurrentState(ctx, payload.DocumentID)
	if err != nil {
		return fmt.Errorf("read state of %s: %w", payload.DocumentID, err)
	}
	if state != model.StateStored && state != model.StateInterpreted {
		log.Printf("skipping %s: state %s, already dispatched", payload.DocumentID, state)
		return nil
	}

	data, err := p.contents.Get(ctx, payload.StorageRef)
	if err != nil {
		return fmt.Errorf("fetch content of %s: %w", payload.DocumentID, err)
	}

	if state == model.StateStored {
		if err := p.append(ctx, payload.DocumentID, model.StateStored, model.StateInterpreted, ""); err != nil {
			return err
		}
	} else {
		log.Printf("resuming %s: stranded in %s by an earlier delivery", payload.DocumentID, state)
	}

	result, err := p.extractor.Extract(ctx, extractor.Request{
		DocumentID: payload.DocumentID,
		Channel:    string(payload.Channel),
		Filename:   payload.Filename,
		Sender:     payload.Sender,
		Subject:    payload.Subject,
		Content:    data,
	})
	if err != nil {
		log.Printf("extraction failed for %s: %v", payload.DocumentID, err)
		if aerr := p.append(ctx, payload.DocumentID, model.StateInterpreted, model.StateFailed, err.Error()); aerr != nil {
			return aerr
		}
		return nil
	}

	toState := model.StateCompleted
	notes := fmt.Sprintf("Extracted %d product(s)", len(result.Products))
	if result.ProcessingSummary != "" {
		notes += ": " + result.ProcessingSummary
	}
	if result.Partial() {
		toState = model.StateCompletedWithFallback
		for _, exc := range result.ProcessingExceptions {
			notes += "; " + exc
		}
	}
	if err := p.append(ctx, payload.DocumentID, model.StateInterpreted, toState, notes); err != nil {
		return err
	}

	log.Printf("document %s %s (%d product(s))", payload.DocumentID, toState, len(result.Products))
	return nil
}

func (p *Processor) append(ctx context.Context, docID string, from, to model.State, notes string) error {
	ev := &model.LifecycleEvent{
		DocumentID: docID,
		FromState:  from,
		ToState:    to,
		Timestamp:  time.Now().UTC(),
		Agent:      model.AgentDispatcher,
		Notes:      notes,
	}
	if err := p.ledger.Append(ctx, ev); err != nil {
		return fmt.Errorf("append %s -> %s for %s: %w", from, to, docID, err)
	}
	return nil
}
