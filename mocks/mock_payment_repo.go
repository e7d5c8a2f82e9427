package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
)

// MockPaymentRepo is a mock implementation of port.PaymentRepository.
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Record(ctx context.Context, scope *uuid.UUID, payment *domain.Payment) (*domain.Invoice, error) {
	args := m.Called(ctx, scope, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockPaymentRepo) ListByInvoice(ctx context.Context, scope *uuid.UUID, invoiceID uuid.UUID) ([]domain.Payment, error) {
	args := m.Called(ctx, scope, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}
