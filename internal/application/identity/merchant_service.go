package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/domain/billing"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
)

// SubscriptionProvider is the slice of subscription state merchant flows need
type SubscriptionProvider interface {
	AssignFree(ctx context.Context, merchantID uuid.UUID) (*billing.MerchantSubscription, error)
	GetCurrentSubscription(ctx context.Context, merchantID uuid.UUID) (*billing.MerchantSubscription, error)
	EffectiveLayout(sub *billing.MerchantSubscription, storedLayout string) string
}

// SignUpMerchantInput is a new merchant registration
type SignUpMerchantInput struct {
	IdentityID   uuid.UUID
	BusinessName string
	Email        string
	Phone        string
}

// PublicMerchantPage is what a visitor's booking page needs about a merchant
type PublicMerchantPage struct {
	Merchant *identity.Merchant
	Layout   string
	IsFree   bool
}

// MerchantService manages merchant signup and settings
type MerchantService struct {
	merchants       identity.MerchantRepository
	userTypes       identity.UserTypeRepository
	subscriptions   SubscriptionProvider
	domainCache     identity.CustomDomainCache
	platformDomains map[string]struct{}
	logger          *zap.Logger
	randomSuffix    func() string
}

// NewMerchantService creates a new MerchantService. domainCache may be nil.
func NewMerchantService(
	merchants identity.MerchantRepository,
	userTypes identity.UserTypeRepository,
	subscriptions SubscriptionProvider,
	domainCache identity.CustomDomainCache,
	logger *zap.Logger,
) *MerchantService {
	return &MerchantService{
		merchants:       merchants,
		userTypes:       userTypes,
		subscriptions:   subscriptions,
		domainCache:     domainCache,
		platformDomains: map[string]struct{}{},
		logger:          logger,
		randomSuffix:    randomHexSuffix,
	}
}

// SetPlatformDomains lists hosts no merchant may claim as a custom domain
func (s *MerchantService) SetPlatformDomains(domains []string) {
	for _, d := range domains {
		d = identity.NormalizeHost(d)
		s.platformDomains[d] = struct{}{}
		s.platformDomains["www."+d] = struct{}{}
	}
}

// SignUpMerchant creates the merchant operated by an identity. Calling it
// again for the same identity returns the existing merchant.
//
// The slug is the slugified business name, then name-1 through name-10. When
// all of those are taken one random suffix is tried before giving up with
// Conflict, so the loop is bounded.
func (s *MerchantService) SignUpMerchant(ctx context.Context, input SignUpMerchantInput) (*identity.Merchant, error) {
	if input.IdentityID == uuid.Nil {
		return nil, shared.InvalidInput("identity id is required")
	}
	ctx = shared.WithElevatedAccess(ctx)

	existing, err := s.merchants.FindByOwner(ctx, input.IdentityID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	base := identity.Slugify(input.BusinessName)
	var merchant *identity.Merchant
	for attempt := 0; attempt <= identity.MaxSlugSuffix && merchant == nil; attempt++ {
		if merchant, err = s.tryCreate(ctx, input, identity.SlugCandidate(base, attempt)); err != nil {
			return nil, err
		}
	}
	if merchant == nil {
		if merchant, err = s.tryCreate(ctx, input, identity.WithSlugSuffix(base, "-"+s.randomSuffix())); err != nil {
			return nil, err
		}
	}
	if merchant == nil {
		return nil, shared.Conflict("could not find a free slug for " + base)
	}

	if _, err := s.subscriptions.AssignFree(ctx, merchant.ID); err != nil {
		return nil, err
	}
	tag, err := identity.NewUserTypeRecord(input.IdentityID, identity.RoleMerchant)
	if err != nil {
		return nil, err
	}
	if err := s.userTypes.CreateIfAbsent(ctx, tag); err != nil {
		return nil, err
	}

	s.logger.Info("Merchant signed up",
		zap.String("merchant_id", merchant.ID.String()),
		zap.String("slug", merchant.Slug),
		zap.String("identity_id", input.IdentityID.String()),
	)
	return merchant, nil
}

// tryCreate inserts a merchant with slug. It returns nil, nil when the slug
// is unavailable so the caller moves to the next candidate.
func (s *MerchantService) tryCreate(ctx context.Context, input SignUpMerchantInput, slug string) (*identity.Merchant, error) {
	if identity.IsReservedSlug(slug) {
		return nil, nil
	}
	taken, err := s.merchants.ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, nil
	}

	merchant, err := identity.NewMerchant(input.IdentityID, input.BusinessName, slug)
	if err != nil {
		return nil, err
	}
	merchant.Email = identity.NormalizeEmail(input.Email)
	merchant.Phone = input.Phone

	if err := s.merchants.Create(ctx, merchant); err != nil {
		if errors.Is(err, identity.ErrSlugTaken) {
			return nil, nil
		}
		return nil, err
	}
	return merchant, nil
}

// GetByOwner returns the merchant operated by identityID
func (s *MerchantService) GetByOwner(ctx context.Context, identityID uuid.UUID) (*identity.Merchant, error) {
	return s.merchants.FindByOwner(shared.WithElevatedAccess(ctx), identityID)
}

// UpdateDomain sets or clears the merchant's custom domain
func (s *MerchantService) UpdateDomain(ctx context.Context, merchantID uuid.UUID, domain string) (*identity.Merchant, error) {
	merchant, err := s.merchants.FindByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	previous, err := merchant.SetCustomDomain(domain)
	if err != nil {
		return nil, err
	}
	if _, reserved := s.platformDomains[merchant.CustomDomain]; reserved {
		return nil, shared.InvalidInput("custom domain cannot be a platform domain")
	}
	if previous == merchant.CustomDomain {
		return merchant, nil
	}

	if err := s.merchants.Save(ctx, merchant); err != nil {
		if errors.Is(err, identity.ErrDomainTaken) {
			return nil, shared.WrapDomainError(shared.CodeConflict, "custom domain is already in use", err)
		}
		return nil, err
	}
	s.invalidate(ctx, previous, merchant.CustomDomain)

	s.logger.Info("Merchant custom domain changed",
		zap.String("merchant_id", merchantID.String()),
		zap.String("previous", previous),
		zap.String("domain", merchant.CustomDomain),
	)
	return merchant, nil
}

// SetActive enables or soft-disables a merchant
func (s *MerchantService) SetActive(ctx context.Context, merchantID uuid.UUID, active bool) (*identity.Merchant, error) {
	merchant, err := s.merchants.FindByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if merchant.Active == active {
		return merchant, nil
	}
	if active {
		merchant.Activate()
	} else {
		merchant.Deactivate()
	}
	if err := s.merchants.Save(ctx, merchant); err != nil {
		return nil, err
	}
	s.invalidate(ctx, merchant.CustomDomain)
	return merchant, nil
}

// SetDirectoryVisible toggles the public directory listing
func (s *MerchantService) SetDirectoryVisible(ctx context.Context, merchantID uuid.UUID, visible bool) (*identity.Merchant, error) {
	merchant, err := s.merchants.FindByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	merchant.SetDirectoryVisible(visible)
	if err := s.merchants.Save(ctx, merchant); err != nil {
		return nil, err
	}
	return merchant, nil
}

// UpdateTheme stores the merchant's theme preferences. The stored layout is
// kept even when the current tier cannot use it.
func (s *MerchantService) UpdateTheme(ctx context.Context, merchantID uuid.UUID, theme map[string]any) (*identity.Merchant, error) {
	merchant, err := s.merchants.FindByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	merchant.SetTheme(theme)
	if err := s.merchants.Save(ctx, merchant); err != nil {
		return nil, err
	}
	return merchant, nil
}

// GetPublicPage returns an active merchant with its effective layout
func (s *MerchantService) GetPublicPage(ctx context.Context, slug string) (*PublicMerchantPage, error) {
	ctx = shared.WithElevatedAccess(ctx)
	merchant, err := s.merchants.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !merchant.Active {
		return nil, shared.NotFound("merchant")
	}
	sub, err := s.subscriptions.GetCurrentSubscription(ctx, merchant.ID)
	if err != nil {
		return nil, err
	}
	return &PublicMerchantPage{
		Merchant: merchant,
		Layout:   s.subscriptions.EffectiveLayout(sub, merchant.StoredLayout()),
		IsFree:   billing.IsFree(sub),
	}, nil
}

// ListDirectory lists active merchants that opted into the public directory
func (s *MerchantService) ListDirectory(ctx context.Context, filter shared.Filter) (shared.Paginated[identity.Merchant], error) {
	items, total, err := s.merchants.ListDirectory(shared.WithElevatedAccess(ctx), filter)
	if err != nil {
		return shared.Paginated[identity.Merchant]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}

func (s *MerchantService) invalidate(ctx context.Context, domains ...string) {
	if s.domainCache == nil {
		return
	}
	keys := make([]string, 0, len(domains))
	for _, d := range domains {
		if d != "" {
			keys = append(keys, d)
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := s.domainCache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("Failed to invalidate custom domain cache", zap.Strings("domains", keys), zap.Error(err))
	}
}

func randomHexSuffix() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()[:6]
	}
	return hex.EncodeToString(b)
}
