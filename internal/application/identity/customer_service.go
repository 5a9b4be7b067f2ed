package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
)

// SignUpCustomerInput is a customer registration
type SignUpCustomerInput struct {
	IdentityID uuid.UUID
	Email      string
	Phone      string
	FullName   string
}

// CustomerService manages customer accounts and their favorites
type CustomerService struct {
	customers identity.CustomerAccountRepository
	merchants identity.MerchantRepository
	userTypes identity.UserTypeRepository
	favorites identity.FavoriteRepository
	logger    *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customers identity.CustomerAccountRepository,
	merchants identity.MerchantRepository,
	userTypes identity.UserTypeRepository,
	favorites identity.FavoriteRepository,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customers: customers,
		merchants: merchants,
		userTypes: userTypes,
		favorites: favorites,
		logger:    logger,
	}
}

// SignUpCustomer creates the customer account of an identity. It is
// idempotent: an existing account is returned unchanged with created=false.
func (s *CustomerService) SignUpCustomer(ctx context.Context, input SignUpCustomerInput) (*identity.CustomerAccount, bool, error) {
	if input.IdentityID == uuid.Nil {
		return nil, false, shared.InvalidInput("identity id is required")
	}

	existing, err := s.customers.FindByID(ctx, input.IdentityID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, false, err
	}

	account, err := identity.NewCustomerAccount(input.IdentityID, input.Email, input.Phone, input.FullName)
	if err != nil {
		return nil, false, err
	}
	if err := s.customers.Create(ctx, account); err != nil {
		// a concurrent signup for the same identity won the insert
		if errors.Is(err, shared.ErrConflict) {
			existing, findErr := s.customers.FindByID(ctx, input.IdentityID)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	tag, err := identity.NewUserTypeRecord(input.IdentityID, identity.RoleCustomer)
	if err != nil {
		return nil, false, err
	}
	if err := s.userTypes.CreateIfAbsent(ctx, tag); err != nil {
		return nil, false, err
	}

	s.logger.Info("Customer signed up", zap.String("identity_id", input.IdentityID.String()))
	return account, true, nil
}

// GetAccount returns a customer account
func (s *CustomerService) GetAccount(ctx context.Context, identityID uuid.UUID) (*identity.CustomerAccount, error) {
	return s.customers.FindByID(ctx, identityID)
}

// ListFavorites returns the merchants a customer saved
func (s *CustomerService) ListFavorites(ctx context.Context, customerID uuid.UUID) ([]identity.Favorite, error) {
	return s.favorites.List(ctx, customerID)
}

// AddFavorite saves an active merchant for the customer. Saving it twice is a no-op.
func (s *CustomerService) AddFavorite(ctx context.Context, customerID, merchantID uuid.UUID) error {
	if merchantID == uuid.Nil {
		return shared.InvalidInput("merchant id is required")
	}
	exists, err := s.customers.Exists(ctx, customerID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NotFound("customer account")
	}

	merchant, err := s.merchants.FindByID(shared.WithElevatedAccess(ctx), merchantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("merchant")
		}
		return err
	}
	if !merchant.Active {
		return shared.NotFound("merchant")
	}
	return s.favorites.Add(ctx, identity.NewFavorite(customerID, merchantID))
}

// RemoveFavorite removes a saved merchant. Removing a missing favorite is a no-op.
func (s *CustomerService) RemoveFavorite(ctx context.Context, customerID, merchantID uuid.UUID) error {
	if merchantID == uuid.Nil {
		return shared.InvalidInput("merchant id is required")
	}
	return s.favorites.Remove(ctx, customerID, merchantID)
}
