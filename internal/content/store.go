// Package content implements the content-addressed store: raw submitted bytes
// keyed by their SHA-256 hash on top of object storage.
package content

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"docintake/internal/model"
	"docintake/internal/storage"
)

// pdfMagic is the signature every valid PDF starts with.
var pdfMagic = []byte("%PDF-")

const keyPrefix = "content/"

// Store persists raw content under content/<sha256><ext>. Identical bytes map
// to one object regardless of how often or concurrently they are submitted.
type Store struct {
	backend  storage.Storage
	maxBytes int64
}

// New constructs a Store with the given size cap in bytes.
func New(backend storage.Storage, maxBytes int64) *Store {
	return &Store{backend: backend, maxBytes: maxBytes}
}

// MaxBytes returns the configured size cap.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// CheckDeclaredSize fails fast when a caller already knows the content size,
// before any bytes are buffered.
func (s *Store) CheckDeclaredSize(size int64) error {
	if size > s.maxBytes {
		return fmt.Errorf("declared size %d exceeds limit %d: %w", size, s.maxBytes, model.ErrTooLarge)
	}
	return nil
}

// ReadAll buffers at most MaxBytes from r, returning model.ErrTooLarge when
// the stream runs past the cap.
func (s *Store) ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, model.ErrTooLarge
	}
	return data, nil
}

// ValidatePDF rejects content that does not begin with the PDF magic bytes.
// The returned error carries the note recorded on the lifecycle event.
func ValidatePDF(data []byte) error {
	if !bytes.HasPrefix(data, pdfMagic) {
		return &model.ValidationError{Note: "Not a PDF file"}
	}
	return nil
}

// Hash returns the lowercase hex SHA-256 over data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key derives the storage key for a hash and file extension.
func Key(hash, ext string) string {
	return keyPrefix + hash + ext
}

// Exists reports whether content with the given hash and extension is already
// persisted.
func (s *Store) Exists(ctx context.Context, hash, ext string) (bool, error) {
	_, err := s.backend.Stat(ctx, Key(hash, ext))
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat content: %w", err)
	}
	return true, nil
}

// Put persists data and returns its storage ref and content hash. It is
// idempotent: when an object for the same hash already exists, it
// short-circuits to the existing ref without duplicating bytes.
func (s *Store) Put(ctx context.Context, data []byte, ext, contentType string) (ref, hash string, existed bool, err error) {
	if int64(len(data)) > s.maxBytes {
		return "", "", false, model.ErrTooLarge
	}

	hash = Hash(data)
	key := Key(hash, ext)

	existed, err = s.Exists(ctx, hash, ext)
	if err != nil {
		return "", "", false, err
	}
	if existed {
		return key, hash, true, nil
	}

	_, err = s.backend.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
	})
	if err != nil {
		return "", "", false, fmt.Errorf("put content: %w", err)
	}
	return key, hash, false, nil
}

// Get returns the raw bytes behind a storage ref.
func (s *Store) Get(ctx context.Context, ref string) ([]byte, error) {
	rc, _, err := s.backend.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return data, nil
}
