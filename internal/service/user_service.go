package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

const bcryptCost = 12

// CreateUserInput is the DTO for creating a user.
type CreateUserInput struct {
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=8"`
	FirstName string          `json:"first_name" binding:"required"`
	LastName  string          `json:"last_name"`
	Role      domain.UserRole `json:"role" binding:"required,role"`
	CompanyID *uuid.UUID      `json:"company_id"`
}

// UpdateUserInput is the DTO for updating a user.
type UpdateUserInput struct {
	FirstName *string          `json:"first_name"`
	LastName  *string          `json:"last_name"`
	Role      *domain.UserRole `json:"role" binding:"omitempty,role"`
	IsActive  *bool            `json:"is_active"`
	Password  *string          `json:"password" binding:"omitempty,min=8"`
}

// UserService defines the user management contract.
type UserService interface {
	Create(ctx context.Context, actor domain.Actor, input CreateUserInput) (*domain.User, error)
	GetByID(ctx context.Context, actor domain.Actor, userID uuid.UUID) (*domain.User, error)
	List(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, offset, limit int) ([]domain.User, int, error)
	Update(ctx context.Context, actor domain.Actor, userID uuid.UUID, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Actor, userID uuid.UUID) error
}

type userService struct {
	repo port.UserRepository
}

// NewUserService creates a new UserService implementation.
func NewUserService(repo port.UserRepository) UserService {
	return &userService{repo: repo}
}

// checkRole rejects unknown roles and stops admins from minting super admins.
func checkRole(actor domain.Actor, role domain.UserRole) error {
	if !domain.ValidRoles[role] {
		return domain.ErrInvalidRole
	}
	if role == domain.RoleSuperAdmin && !actor.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func (s *userService) Create(ctx context.Context, actor domain.Actor, input CreateUserInput) (*domain.User, error) {
	if err := checkRole(actor, input.Role); err != nil {
		return nil, err
	}

	var companyID *uuid.UUID
	if input.Role != domain.RoleSuperAdmin {
		id, err := actor.OwnCompany(input.CompanyID)
		if err != nil {
			return nil, err
		}
		companyID = &id
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		CompanyID:    companyID,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, actor domain.Actor, userID uuid.UUID) (*domain.User, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, scope, userID)
}

func (s *userService) List(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, offset, limit int) ([]domain.User, int, error) {
	scope, err := actor.Scope(companyID)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, scope, offset, limit)
}

func (s *userService) Update(ctx context.Context, actor domain.Actor, userID uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, scope, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleSuperAdmin && !actor.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Role != nil {
		if err := checkRole(actor, *input.Role); err != nil {
			return nil, err
		}
		if *input.Role != domain.RoleSuperAdmin && user.CompanyID == nil {
			return nil, domain.ErrNoCompany
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, scope, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor domain.Actor, userID uuid.UUID) error {
	if userID == actor.UserID {
		return domain.ErrSelfDelete
	}
	scope, err := actor.Scope(nil)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, scope, userID)
}
