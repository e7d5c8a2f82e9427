package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

// MockLLMClient is a mock implementation of port.LLMClient.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Chat(ctx context.Context, req port.ChatRequest) (*port.ChatResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ChatResult), args.Error(1)
}

func (m *MockLLMClient) Status(ctx context.Context, override *domain.AIConfig) []port.ProviderStatus {
	args := m.Called(ctx, override)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]port.ProviderStatus)
}

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	args := m.Called(ctx, data, filename)
	return args.String(0), args.Error(1)
}
