package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

// MockContactRepo is a mock implementation of port.ContactRepository.
type MockContactRepo struct {
	mock.Mock
}

func (m *MockContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockContactRepo) GetByID(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.Contact, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepo) List(ctx context.Context, scope *uuid.UUID, filter port.ContactFilter, offset, limit int) ([]domain.Contact, int, error) {
	args := m.Called(ctx, scope, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Contact), args.Int(1), args.Error(2)
}

func (m *MockContactRepo) Update(ctx context.Context, scope *uuid.UUID, contact *domain.Contact) error {
	args := m.Called(ctx, scope, contact)
	return args.Error(0)
}

func (m *MockContactRepo) Deactivate(ctx context.Context, scope *uuid.UUID, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockContactRepo) FindByNameFragment(ctx context.Context, companyID uuid.UUID, name string) (*domain.Contact, error) {
	args := m.Called(ctx, companyID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepo) Stats(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.ContactStats, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContactStats), args.Error(1)
}

func (m *MockContactRepo) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	args := m.Called(ctx, companyID)
	return args.Int(0), args.Error(1)
}
