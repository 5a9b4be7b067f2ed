package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
)

// Role is the primary role tag of an identity
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleMerchant
}

// ParseRole parses a role tag
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", shared.InvalidInput("role must be 'customer' or 'merchant'")
	}
	return r, nil
}

// UserTypeRecord maps an identity to its default routing role.
// At most one record exists per identity. The tag is a hint; it never
// restricts access to the other role's data.
type UserTypeRecord struct {
	IdentityID uuid.UUID
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewUserTypeRecord creates a tag for identityID
func NewUserTypeRecord(identityID uuid.UUID, role Role) (*UserTypeRecord, error) {
	if identityID == uuid.Nil {
		return nil, shared.InvalidInput("identity id is required")
	}
	if !role.IsValid() {
		return nil, shared.InvalidInput("role must be 'customer' or 'merchant'")
	}
	now := time.Now()
	return &UserTypeRecord{
		IdentityID: identityID,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Roles is the set of roles an identity actually holds, derived from owned rows
type Roles struct {
	HasMerchant bool `json:"has_merchant"`
	HasCustomer bool `json:"has_customer"`
}

// IsDual reports whether the identity owns both a merchant and a customer account
func (r Roles) IsDual() bool {
	return r.HasMerchant && r.HasCustomer
}

// Has reports whether the identity holds role
func (r Roles) Has(role Role) bool {
	switch role {
	case RoleMerchant:
		return r.HasMerchant
	case RoleCustomer:
		return r.HasCustomer
	default:
		return false
	}
}

// Derive picks the default role from actual rows. A valid hint wins when the
// identity really holds that role; otherwise merchant beats customer. The
// boolean is false when the identity holds neither role.
func (r Roles) Derive(hint Role) (Role, bool) {
	if hint.IsValid() && r.Has(hint) {
		return hint, true
	}
	switch {
	case r.HasMerchant:
		return RoleMerchant, true
	case r.HasCustomer:
		return RoleCustomer, true
	default:
		return "", false
	}
}
