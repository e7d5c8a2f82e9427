package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
)

// MockReportRepo is a mock implementation of port.ReportRepository.
type MockReportRepo struct {
	mock.Mock
}

func (m *MockReportRepo) Summary(ctx context.Context, scope *uuid.UUID) (*domain.ReportSummary, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReportSummary), args.Error(1)
}

func (m *MockReportRepo) Monthly(ctx context.Context, scope *uuid.UUID, from time.Time) ([]domain.MonthlyTotal, error) {
	args := m.Called(ctx, scope, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonthlyTotal), args.Error(1)
}

func (m *MockReportRepo) TopContacts(ctx context.Context, companyID uuid.UUID, limit int) ([]domain.ContactTotal, error) {
	args := m.Called(ctx, companyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContactTotal), args.Error(1)
}
