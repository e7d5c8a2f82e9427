package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
	"facturaia/internal/port"
	"facturaia/internal/service"
)

// MockReportService is a mock implementation of service.ReportService.
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Summary(ctx context.Context, actor domain.Actor, companyID *uuid.UUID) (*domain.ReportSummary, error) {
	args := m.Called(ctx, actor, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReportSummary), args.Error(1)
}

func (m *MockReportService) Monthly(ctx context.Context, actor domain.Actor, companyID *uuid.UUID) ([]domain.MonthlyTotal, error) {
	args := m.Called(ctx, actor, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonthlyTotal), args.Error(1)
}

func (m *MockReportService) Export(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, format string, filter port.InvoiceFilter) (*service.ExportFile, error) {
	args := m.Called(ctx, actor, companyID, format, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportFile), args.Error(1)
}

// MockAssistantService is a mock implementation of service.AssistantService.
type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) Chat(ctx context.Context, actor domain.Actor, input service.ChatInput) (*service.ChatReply, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatReply), args.Error(1)
}

func (m *MockAssistantService) Status(ctx context.Context, actor domain.Actor) ([]port.ProviderStatus, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.ProviderStatus), args.Error(1)
}
