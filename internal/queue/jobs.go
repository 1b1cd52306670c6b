package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"docintake/internal/model"
)

const (
	// ExtractDocumentTask is scheduled once for every stored document.
	ExtractDocumentTask = "document:extract"
)

// ExtractPayload is serialized into the task payload so the dispatch worker
// knows which document to pull from the content store.
type ExtractPayload struct {
	DocumentID string        `json:"document_id"`
	StorageRef string        `json:"storage_ref"`
	Channel    model.Channel `json:"channel"`
	Filename   string        `json:"filename,omitempty"`
	Sender     string        `json:"sender,omitempty"`
	Subject    string        `json:"subject,omitempty"`
}

// Enqueuer hands extraction work to the dispatch pool.
type Enqueuer interface {
	EnqueueExtract(ctx context.Context, payload ExtractPayload) error
}

// Client wraps an asynq client as an Enqueuer.
type Client struct {
	inner *asynq.Client
}

// NewClient creates a Client backed by the given asynq client.
func NewClient(inner *asynq.Client) *Client {
	return &Client{inner: inner}
}

var _ Enqueuer = (*Client)(nil)

// EnqueueExtract enqueues an extraction job for a stored document. Delivery is
// at least once; the worker tolerates duplicates by checking document state.
func (c *Client) EnqueueExtract(ctx context.Context, payload ExtractPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(ExtractDocumentTask, data)
	if _, err := c.inner.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue extract task: %w", err)
	}
	return nil
}
