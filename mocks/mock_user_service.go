package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
	"facturaia/internal/service"
)

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, actor domain.Actor, input service.CreateUserInput) (*domain.User, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, actor domain.Actor, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, actor, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, offset, limit int) ([]domain.User, int, error) {
	args := m.Called(ctx, actor, companyID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *MockUserService) Update(ctx context.Context, actor domain.Actor, userID uuid.UUID, input service.UpdateUserInput) (*domain.User, error) {
	args := m.Called(ctx, actor, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, actor domain.Actor, userID uuid.UUID) error {
	args := m.Called(ctx, actor, userID)
	return args.Error(0)
}
