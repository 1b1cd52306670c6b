package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/extractor"
)

// MockExtractor is a mock implementation of extractor.Extractor.
type MockExtractor struct {
	mock.Mock
}

var _ extractor.Extractor = (*MockExtractor)(nil)

func (m *MockExtractor) Extract(ctx context.Context, req extractor.Request) (*extractor.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extractor.Result), args.Error(1)
}
