package mocks

import (
	"context"

	"docintake/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, ev *model.LifecycleEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockLedgerRepository) History(ctx context.Context, documentID string) ([]model.LifecycleEvent, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LifecycleEvent), args.Error(1)
}

func (m *MockLedgerRepository) CurrentState(ctx context.Context, documentID string) (model.State, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(model.State), args.Error(1)
}

type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, fb *model.Feedback) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}
