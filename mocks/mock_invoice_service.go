package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
	"facturaia/internal/port"
	"facturaia/internal/service"
)

// MockInvoiceService is a mock implementation of service.InvoiceService.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, actor domain.Actor, input service.CreateInvoiceInput) (*domain.Invoice, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, actor, companyID, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceService) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error) {
	args := m.Called(ctx, actor, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockInvoiceService) RecordPayment(ctx context.Context, actor domain.Actor, id uuid.UUID, input service.RecordPaymentInput) (*domain.Invoice, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) ListPayments(ctx context.Context, actor domain.Actor, id uuid.UUID) ([]domain.Payment, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockInvoiceService) File(ctx context.Context, actor domain.Actor, id uuid.UUID) (*service.InvoiceFile, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InvoiceFile), args.Error(1)
}

// MockIngestionService is a mock implementation of service.IngestionService.
type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, input service.IngestInput) (*service.IngestResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}
