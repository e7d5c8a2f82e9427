package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

// CreateContactInput is the DTO for creating a contact.
type CreateContactInput struct {
	Name          string             `json:"name" binding:"required"`
	TaxID         string             `json:"tax_id" binding:"omitempty,max=13"`
	Type          domain.ContactType `json:"type" binding:"omitempty,contact_type"`
	Address       string             `json:"address"`
	Phone         string             `json:"phone"`
	Email         string             `json:"email" binding:"omitempty,email"`
	ContactPerson string             `json:"contact_person"`
	Notes         string             `json:"notes"`
	CompanyID     *uuid.UUID         `json:"company_id"`
}

// UpdateContactInput is the DTO for updating a contact.
type UpdateContactInput struct {
	Name          *string             `json:"name"`
	TaxID         *string             `json:"tax_id" binding:"omitempty,max=13"`
	Type          *domain.ContactType `json:"type" binding:"omitempty,contact_type"`
	Address       *string             `json:"address"`
	Phone         *string             `json:"phone"`
	Email         *string             `json:"email" binding:"omitempty,email"`
	ContactPerson *string             `json:"contact_person"`
	Notes         *string             `json:"notes"`
}

// ContactService defines the contact management contract.
type ContactService interface {
	Create(ctx context.Context, actor domain.Actor, input CreateContactInput) (*domain.Contact, error)
	GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Contact, error)
	List(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, filter port.ContactFilter, offset, limit int) ([]domain.Contact, int, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateContactInput) (*domain.Contact, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	Stats(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ContactStats, error)
}

type contactService struct {
	repo port.ContactRepository
}

// NewContactService creates a new ContactService implementation.
func NewContactService(repo port.ContactRepository) ContactService {
	return &contactService{repo: repo}
}

func (s *contactService) Create(ctx context.Context, actor domain.Actor, input CreateContactInput) (*domain.Contact, error) {
	companyID, err := actor.OwnCompany(input.CompanyID)
	if err != nil {
		return nil, err
	}

	contact := &domain.Contact{
		CompanyID:     companyID,
		Name:          strings.TrimSpace(input.Name),
		TaxID:         strings.ToUpper(strings.TrimSpace(input.TaxID)),
		Type:          input.Type,
		Address:       input.Address,
		Phone:         input.Phone,
		Email:         input.Email,
		ContactPerson: input.ContactPerson,
		Notes:         input.Notes,
		IsActive:      true,
	}
	if contact.Type == "" {
		contact.Type = domain.ContactTypeCustomer
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *contactService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Contact, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, scope, id)
}

func (s *contactService) List(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, filter port.ContactFilter, offset, limit int) ([]domain.Contact, int, error) {
	scope, err := actor.Scope(companyID)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, scope, filter, offset, limit)
}

func (s *contactService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateContactInput) (*domain.Contact, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	contact, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		contact.Name = strings.TrimSpace(*input.Name)
	}
	if input.TaxID != nil {
		contact.TaxID = strings.ToUpper(strings.TrimSpace(*input.TaxID))
	}
	if input.Type != nil {
		contact.Type = *input.Type
	}
	if input.Address != nil {
		contact.Address = *input.Address
	}
	if input.Phone != nil {
		contact.Phone = *input.Phone
	}
	if input.Email != nil {
		contact.Email = *input.Email
	}
	if input.ContactPerson != nil {
		contact.ContactPerson = *input.ContactPerson
	}
	if input.Notes != nil {
		contact.Notes = *input.Notes
	}

	if err := s.repo.Update(ctx, scope, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Delete is a soft delete; invoices keep pointing at the contact.
func (s *contactService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	scope, err := actor.Scope(nil)
	if err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, scope, id)
}

func (s *contactService) Stats(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ContactStats, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, scope, id)
}
