package content

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"docintake/internal/model"
	"docintake/internal/storage"
	storeMocks "docintake/internal/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var errNoSuchKey = minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}

func TestValidatePDF(t *testing.T) {
	assert.NoError(t, ValidatePDF([]byte("%PDF-1.7\nrest of file")))

	err := ValidatePDF([]byte("plain text renamed to .pdf"))
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "Not a PDF file", verr.Note)
}

func TestHashAndKey(t *testing.T) {
	data := []byte("hello world")
	sum := sha256.Sum256(data)
	want := hex.EncodeToString(sum[:])

	assert.Equal(t, want, Hash(data))
	assert.Equal(t, "content/"+want+".pdf", Key(want, ".pdf"))
}

func TestStore_PutNewContent(t *testing.T) {
	ctx := context.Background()
	backend := new(storeMocks.MockStorage)
	s := New(backend, 1<<20)

	data := []byte("%PDF-1.4 fresh")
	key := Key(Hash(data), ".pdf")

	backend.On("Stat", ctx, key).Return(storage.ObjectInfo{}, errNoSuchKey)
	backend.On("Put", ctx, key, mock.Anything, storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: "application/pdf",
	}).Return(storage.ObjectInfo{Key: key}, nil)

	ref, hash, existed, err := s.Put(ctx, data, ".pdf", "application/pdf")

	assert.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, key, ref)
	assert.Equal(t, Hash(data), hash)
	backend.AssertExpectations(t)
}

func TestStore_PutIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := new(storeMocks.MockStorage)
	s := New(backend, 1<<20)

	data := []byte("%PDF-1.4 already stored")
	key := Key(Hash(data), ".pdf")

	// Object already present: put must short-circuit, never writing again.
	backend.On("Stat", ctx, key).Return(storage.ObjectInfo{Key: key}, nil).Twice()

	ref1, _, existed1, err1 := s.Put(ctx, data, ".pdf", "application/pdf")
	ref2, _, existed2, err2 := s.Put(ctx, data, ".pdf", "application/pdf")

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.True(t, existed1)
	assert.True(t, existed2)
	assert.Equal(t, ref1, ref2)
	backend.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_PutTooLarge(t *testing.T) {
	backend := new(storeMocks.MockStorage)
	s := New(backend, 8)

	_, _, _, err := s.Put(context.Background(), []byte("123456789"), ".pdf", "application/pdf")

	assert.ErrorIs(t, err, model.ErrTooLarge)
	backend.AssertNotCalled(t, "Stat", mock.Anything, mock.Anything)
}

func TestStore_CheckDeclaredSize(t *testing.T) {
	s := New(nil, 100)

	assert.NoError(t, s.CheckDeclaredSize(100))
	assert.ErrorIs(t, s.CheckDeclaredSize(101), model.ErrTooLarge)
}

func TestStore_ReadAll(t *testing.T) {
	s := New(nil, 8)

	data, err := s.ReadAll(bytes.NewReader([]byte("12345678")))
	assert.NoError(t, err)
	assert.Len(t, data, 8)

	_, err = s.ReadAll(bytes.NewReader([]byte("123456789")))
	assert.ErrorIs(t, err, model.ErrTooLarge)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	backend := new(storeMocks.MockStorage)
	s := New(backend, 1<<20)

	rc := newReadCloser([]byte("stored bytes"))
	backend.On("Get", ctx, "content/abc.pdf").Return(rc, storage.ObjectInfo{Key: "content/abc.pdf"}, nil)

	data, err := s.Get(ctx, "content/abc.pdf")

	assert.NoError(t, err)
	assert.Equal(t, []byte("stored bytes"), data)
	backend.AssertExpectations(t)
}

type readCloser struct{ *bytes.Reader }

func (readCloser) Close() error { return nil }

func newReadCloser(b []byte) readCloser {
	return readCloser{bytes.NewReader(b)}
}
