package repository

import (
	"context"

	"docintake/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations. Documents are
// immutable: there is no update or delete.
type DocumentRepository interface {
	// Create inserts a new document record.
	Create(ctx context.Context, doc *model.Document) error

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)
}
