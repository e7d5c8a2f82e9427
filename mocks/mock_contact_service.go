package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
	"facturaia/internal/port"
	"facturaia/internal/service"
)

// MockContactService is a mock implementation of service.ContactService.
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Create(ctx context.Context, actor domain.Actor, input service.CreateContactInput) (*domain.Contact, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Contact, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactService) List(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, filter port.ContactFilter, offset, limit int) ([]domain.Contact, int, error) {
	args := m.Called(ctx, actor, companyID, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Contact), args.Int(1), args.Error(2)
}

func (m *MockContactService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, input service.UpdateContactInput) (*domain.Contact, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockContactService) Stats(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ContactStats, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContactStats), args.Error(1)
}
