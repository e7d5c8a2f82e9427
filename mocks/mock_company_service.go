package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturaia/internal/domain"
	"facturaia/internal/service"
)

// MockCompanyService is a mock implementation of service.CompanyService.
type MockCompanyService struct {
	mock.Mock
}

func (m *MockCompanyService) Create(ctx context.Context, actor domain.Actor, input service.CreateCompanyInput) (*domain.Company, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanyService) List(ctx context.Context, actor domain.Actor, offset, limit int) ([]domain.Company, int, error) {
	args := m.Called(ctx, actor, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Company), args.Int(1), args.Error(2)
}

func (m *MockCompanyService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Company, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanyService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, input service.UpdateCompanyInput) (*domain.Company, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanyService) UpdateConfig(ctx context.Context, actor domain.Actor, id uuid.UUID, input service.UpdateConfigInput) (*domain.Company, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}
