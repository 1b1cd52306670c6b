package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docintake/internal/content"
	"docintake/internal/model"
	"docintake/internal/queue"
	"docintake/internal/ratelimit"
	"docintake/internal/repository"
)

// SubmitRequest is a single incoming document submission.
type SubmitRequest struct {
	// ClientKey identifies the caller for rate limiting, typically the remote IP.
	ClientKey   string
	APIKey      string
	Channel     model.Channel
	Filename    string
	ContentType string
	Sender      string
	Subject     string
	Data        []byte
}

// SubmitResult reports the outcome of an accepted submission.
type SubmitResult struct {
	DocumentID string      `json:"document_id"`
	State      model.State `json:"state"`
	Duplicate  bool        `json:"duplicate"`
}

// IngestService is the single entry point for documents. Every submission,
// accepted or rejected, leaves exactly one lifecycle event behind.
type IngestService interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}

type ingestService struct {
	contents *content.Store
	docs     repository.DocumentRepository
	ledger   repository.LedgerRepository
	limiter  *ratelimit.Limiter
	enqueue  queue.Enqueuer
	apiKeys  []string
}

// NewIngestService constructs an IngestService. apiKeys may be empty, in
// which case authentication is disabled.
func NewIngestService(
	contents *content.Store,
	docs repository.DocumentRepository,
	ledger repository.LedgerRepository,
	limiter *ratelimit.Limiter,
	enqueue queue.Enqueuer,
	apiKeys []string,
) IngestService {
	return &ingestService{
		contents: contents,
		docs:     docs,
		ledger:   ledger,
		limiter:  limiter,
		enqueue:  enqueue,
		apiKeys:  apiKeys,
	}
}

// Submit runs the full intake sequence: rate limit, authenticate, validate,
// store, record, enqueue. Rejections are written to the ledger under a fresh
// document ID even though no document row is created for them, so every
// request stays auditable.
func (s *ingestService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	docID := "doc-" + uuid.New().String()

	if !s.limiter.Allow(req.ClientKey) {
		if err := s.reject(ctx, docID, model.StateRateLimited, "Rate limit exceeded"); err != nil {
			return nil, err
		}
		return nil, model.ErrRateLimited
	}

	if !s.authorized(req.APIKey) {
		if err := s.reject(ctx, docID, model.StateUnauthorized, "Invalid API key"); err != nil {
			return nil, err
		}
		return nil, model.ErrUnauthorized
	}

	if int64(len(req.Data)) > s.contents.MaxBytes() {
		if err := s.reject(ctx, docID, model.StateFailed, "File exceeds size limit"); err != nil {
			return nil, err
		}
		return nil, model.ErrTooLarge
	}

	ext, contentType, verr := s.validate(req)
	if verr != nil {
		if err := s.reject(ctx, docID, model.StateFailed, verr.Note); err != nil {
			return nil, err
		}
		return nil, verr
	}

	ref, hash, existed, err := s.contents.Put(ctx, req.Data, ext, contentType)
	if err != nil {
		if aerr := s.reject(ctx, docID, model.StateFailed, "Storage error: "+err.Error()); aerr != nil {
			return nil, aerr
		}
		return nil, fmt.Errorf("store content: %w", err)
	}

	doc := &model.Document{
		ID:          docID,
		ContentHash: hash,
		Channel:     req.Channel,
		StorageRef:  ref,
		Filename:    req.Filename,
		Sender:      req.Sender,
		Subject:     req.Subject,
		Size:        int64(len(req.Data)),
		ReceivedAt:  time.Now().UTC(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if aerr := s.reject(ctx, docID, model.StateFailed, "Storage error: "+err.Error()); aerr != nil {
			return nil, aerr
		}
		return nil, fmt.Errorf("save document: %w", err)
	}

	notes := "File saved"
	if existed {
		notes = "File saved, content already present"
	}
	if err := s.append(ctx, docID, model.StateStored, notes); err != nil {
		return nil, err
	}

	if err := s.enqueue.EnqueueExtract(ctx, queue.ExtractPayload{
		DocumentID: docID,
		StorageRef: ref,
		Channel:    req.Channel,
		Filename:   req.Filename,
		Sender:     req.Sender,
		Subject:    req.Subject,
	}); err != nil {
		// The document stays queryable in STORED; no second event is written.
		return nil, fmt.Errorf("enqueue extraction: %w", err)
	}

	return &SubmitResult{DocumentID: docID, State: model.StateStored, Duplicate: existed}, nil
}

func (s *ingestService) authorized(apiKey string) bool {
	if len(s.apiKeys) == 0 {
		return true
	}
	for _, k := range s.apiKeys {
		if apiKey == k {
			return true
		}
	}
	return false
}

// validate checks channel-specific content rules and picks the storage
// extension and content type.
func (s *ingestService) validate(req SubmitRequest) (ext, contentType string, verr *model.ValidationError) {
	switch req.Channel {
	case model.ChannelUpload:
		if e := strings.ToLower(filepath.Ext(req.Filename)); e != "" && e != ".pdf" {
			return "", "", model.Validationf("Not a PDF file")
		}
		if err := content.ValidatePDF(req.Data); err != nil {
			return "", "", err.(*model.ValidationError)
		}
		// Normalized so a.pdf and a.PDF dedup to the same storage key.
		ext = ".pdf"
		contentType = "application/pdf"
	case model.ChannelText:
		if len(strings.TrimSpace(string(req.Data))) == 0 {
			return "", "", model.Validationf("Empty text body")
		}
		ext = ".txt"
		contentType = "text/plain"
	default:
		return "", "", model.Validationf("Unknown channel %q", req.Channel)
	}
	return ext, contentType, nil
}

func (s *ingestService) reject(ctx context.Context, docID string, to model.State, notes string) error {
	return s.append(ctx, docID, to, notes)
}

func (s *ingestService) append(ctx context.Context, docID string, to model.State, notes string) error {
	ev := &model.LifecycleEvent{
		DocumentID: docID,
		FromState:  model.StateReceived,
		ToState:    to,
		Timestamp:  time.Now().UTC(),
		Agent:      model.AgentGateway,
		Notes:      notes,
	}
	if err := s.ledger.Append(ctx, ev); err != nil {
		return fmt.Errorf("record %s for %s: %w", to, docID, err)
	}
	return nil
}
