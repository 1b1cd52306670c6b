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

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := &model.Document{
		ID:          "doc-1",
		ContentHash: "abc123",
		Channel:     model.ChannelUpload,
		StorageRef:  "content/abc123.pdf",
		Filename:    "invoice.pdf",
		Sender:      "tester",
		Subject:     "",
		Size:        42,
		ReceivedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.ContentHash, doc.Channel, doc.StorageRef, doc.Filename, doc.Sender, doc.Subject, doc.Size, doc.ReceivedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Create(context.Background(), doc)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "content_hash", "channel", "storage_ref", "filename", "sender", "subject", "size", "received_at"}).
			AddRow("doc-1", "abc123", "upload", "content/abc123.pdf", "invoice.pdf", "tester", "", int64(42), now)

		mock.ExpectQuery("SELECT id, content_hash, channel, storage_ref, filename, sender, subject, size, received_at FROM documents").
			WithArgs("doc-1").
			WillReturnRows(rows)

		doc, err := repo.FindByID(context.Background(), "doc-1")

		require.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
		assert.Equal(t, model.ChannelUpload, doc.Channel)
		assert.Equal(t, int64(42), doc.Size)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, content_hash, channel, storage_ref, filename, sender, subject, size, received_at FROM documents").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(context.Background(), "missing")

		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, content_hash, channel, storage_ref, filename, sender, subject, size, received_at FROM documents").
			WithArgs("doc-1").
			WillReturnError(errors.New("db down"))

		_, err := repo.FindByID(context.Background(), "doc-1")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
