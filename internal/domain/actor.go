package domain

import "github.com/google/uuid"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Role      UserRole
	Email     string
}

// IsSuperAdmin reports whether the actor spans all companies.
func (a Actor) IsSuperAdmin() bool { return a.Role == RoleSuperAdmin }

// CanManage reports whether the actor may administer its company.
func (a Actor) CanManage() bool { return a.Role == RoleSuperAdmin || a.Role == RoleAdmin }

// Scope resolves the company filter for a query. Super admins get the
// requested company, or nil meaning every company. Everyone else is pinned
// to their own company and the requested id is ignored.
func (a Actor) Scope(requested *uuid.UUID) (*uuid.UUID, error) {
	if a.IsSuperAdmin() {
		return requested, nil
	}
	if a.CompanyID == nil {
		return nil, ErrNoCompany
	}
	id := *a.CompanyID
	return &id, nil
}

// OwnCompany resolves the company a write lands in. Super admins must name
// one unless they are themselves assigned to a company.
func (a Actor) OwnCompany(requested *uuid.UUID) (uuid.UUID, error) {
	scope, err := a.Scope(requested)
	if err != nil {
		return uuid.Nil, err
	}
	if scope == nil {
		if a.CompanyID != nil {
			return *a.CompanyID, nil
		}
		return uuid.Nil, ErrNoCompany
	}
	return *scope, nil
}
