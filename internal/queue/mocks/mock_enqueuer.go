package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/queue"
)

// MockEnqueuer is a mock implementation of queue.Enqueuer.
type MockEnqueuer struct {
	mock.Mock
}

var _ queue.Enqueuer = (*MockEnqueuer)(nil)

func (m *MockEnqueuer) EnqueueExtract(ctx context.Context, payload queue.ExtractPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
