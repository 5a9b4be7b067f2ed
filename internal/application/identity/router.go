// Package identity implements account routing, signup and merchant settings.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
)

// Surface is the part of the product an identity lands on after login
type Surface string

const (
	SurfaceCustomer      Surface = "customer"
	SurfaceMerchant      Surface = "merchant"
	SurfaceRoleSelection Surface = "role_selection"
)

// Routing is the post-login routing decision for an identity
type Routing struct {
	IdentityID uuid.UUID      `json:"identity_id"`
	Surface    Surface        `json:"surface"`
	Roles      identity.Roles `json:"roles"`
	Tag        identity.Role  `json:"tag,omitempty"`
	Healed     bool           `json:"healed"`
}

// AccountRouter derives roles from the rows an identity owns. The stored tag
// is only a preference between roles the identity really holds; when it is
// missing or stale it is rewritten to the derived role.
type AccountRouter struct {
	merchants identity.MerchantRepository
	customers identity.CustomerAccountRepository
	userTypes identity.UserTypeRepository
	logger    *zap.Logger
}

// NewAccountRouter creates a new AccountRouter
func NewAccountRouter(
	merchants identity.MerchantRepository,
	customers identity.CustomerAccountRepository,
	userTypes identity.UserTypeRepository,
	logger *zap.Logger,
) *AccountRouter {
	return &AccountRouter{
		merchants: merchants,
		customers: customers,
		userTypes: userTypes,
		logger:    logger,
	}
}

// Roles reports which roles identityID actually holds
func (r *AccountRouter) Roles(ctx context.Context, identityID uuid.UUID) (identity.Roles, error) {
	ctx = shared.WithElevatedAccess(ctx)
	hasMerchant, err := r.merchants.ExistsByOwner(ctx, identityID)
	if err != nil {
		return identity.Roles{}, err
	}
	hasCustomer, err := r.customers.Exists(ctx, identityID)
	if err != nil {
		return identity.Roles{}, err
	}
	return identity.Roles{HasMerchant: hasMerchant, HasCustomer: hasCustomer}, nil
}

// Route picks the surface for identityID and heals the stored tag
func (r *AccountRouter) Route(ctx context.Context, identityID uuid.UUID) (*Routing, error) {
	if identityID == uuid.Nil {
		return nil, shared.InvalidInput("identity id is required")
	}
	roles, err := r.Roles(ctx, identityID)
	if err != nil {
		return nil, err
	}

	var stored identity.Role
	record, err := r.userTypes.Find(ctx, identityID)
	switch {
	case err == nil:
		stored = record.Role
	case errors.Is(err, shared.ErrNotFound):
	default:
		return nil, err
	}

	routing := &Routing{IdentityID: identityID, Roles: roles, Tag: stored}
	role, ok := roles.Derive(stored)
	if !ok {
		routing.Surface = SurfaceRoleSelection
		return routing, nil
	}
	routing.Surface = surfaceFor(role)

	if role != stored {
		r.heal(ctx, identityID, stored, role, routing)
	}
	return routing, nil
}

// heal rewrites a missing or stale tag. Failure only costs the hint, so it is
// logged and routing proceeds with the derived role.
func (r *AccountRouter) heal(ctx context.Context, identityID uuid.UUID, stored, derived identity.Role, routing *Routing) {
	record, err := identity.NewUserTypeRecord(identityID, derived)
	if err == nil {
		err = r.userTypes.Upsert(ctx, record)
	}
	if err != nil {
		r.logger.Warn("Failed to heal user type tag",
			zap.String("identity_id", identityID.String()),
			zap.String("derived", string(derived)),
			zap.Error(err),
		)
		return
	}
	r.logger.Info("User type tag healed",
		zap.String("identity_id", identityID.String()),
		zap.String("stored", string(stored)),
		zap.String("derived", string(derived)),
	)
	routing.Tag = derived
	routing.Healed = true
}

func surfaceFor(role identity.Role) Surface {
	if role == identity.RoleMerchant {
		return SurfaceMerchant
	}
	return SurfaceCustomer
}
