package postgres

import (
	"context"
	"database/sql"
	"errors"

	"docintake/internal/model"
	"docintake/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) error {
	const q = `
		INSERT INTO documents (id, content_hash, channel, storage_ref, filename, sender, subject, size, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, q,
		doc.ID,
		doc.ContentHash,
		doc.Channel,
		doc.StorageRef,
		doc.Filename,
		doc.Sender,
		doc.Subject,
		doc.Size,
		doc.ReceivedAt,
	)
	return err
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT id, content_hash, channel, storage_ref, filename, sender, subject, size, received_at
		FROM documents
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.ContentHash,
		&d.Channel,
		&d.StorageRef,
		&d.Filename,
		&d.Sender,
		&d.Subject,
		&d.Size,
		&d.ReceivedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
