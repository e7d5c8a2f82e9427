package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

// MockInvoiceRepo is a mock implementation of port.InvoiceRepository.
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepo) CreateWithFolio(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepo) GetByID(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) List(ctx context.Context, scope *uuid.UUID, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, scope, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceRepo) UpdateStatus(ctx context.Context, scope *uuid.UUID, id uuid.UUID, status domain.InvoiceStatus) error {
	args := m.Called(ctx, scope, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepo) FindDuplicateCandidates(ctx context.Context, companyID uuid.UUID, number string, issueDate time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, companyID, number, issueDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}
