package model

import "time"

// Channel is the submission modality for a document.
type Channel string

const (
	ChannelUpload Channel = "upload"
	ChannelText   Channel = "text"
)

// Document is one accepted unit of submitted content. It is created once by the
// ingress gateway and never mutated afterwards; corrections arrive as new
// lifecycle events, not new documents.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID          string    `json:"id"`
	ContentHash string    `json:"content_hash"`
	Channel     Channel   `json:"channel"`
	StorageRef  string    `json:"storage_ref"`
	Filename    string    `json:"filename,omitempty"`
	Sender      string    `json:"sender,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Size        int64     `json:"size"`
	ReceivedAt  time.Time `json:"received_at"`
}

// LifecycleEvent is an immutable record of one state transition for a document.
// Events for a document are totally ordered; the current state of a document is
// the ToState of its latest event.
type LifecycleEvent struct {
	DocumentID string    `json:"document_id"`
	FromState  State     `json:"from_state"`
	ToState    State     `json:"to_state"`
	Timestamp  time.Time `json:"timestamp"`
	Agent      Agent     `json:"agent"`
	Notes      string    `json:"notes,omitempty"`
}

// Feedback is a post-hoc correction for a completed document. At least one of
// Corrections/Comment must be present; persisting it reopens the document as
// FLAGGED.
type Feedback struct {
	DocumentID  string            `json:"document_id"`
	Corrections map[string]string `json:"corrections,omitempty"`
	Comment     string            `json:"comment,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
}
