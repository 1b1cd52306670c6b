package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/service"
)

// MockIngestService is a mock implementation of service.IngestService.
type MockIngestService struct {
	mock.Mock
}

var _ service.IngestService = (*MockIngestService)(nil)

func (m *MockIngestService) Submit(ctx context.Context, req service.SubmitRequest) (*service.SubmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmitResult), args.Error(1)
}

// MockStatusService is a mock implementation of service.StatusService.
type MockStatusService struct {
	mock.Mock
}

var _ service.StatusService = (*MockStatusService)(nil)

func (m *MockStatusService) GetStatus(ctx context.Context, documentID string) (*service.StatusResult, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatusResult), args.Error(1)
}

func (m *MockStatusService) SubmitFeedback(ctx context.Context, documentID string, req service.FeedbackRequest) error {
	args := m.Called(ctx, documentID, req)
	return args.Error(0)
}
