package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	billingapp "github.com/slotbook/backend/internal/application/billing"
	bookingapp "github.com/slotbook/backend/internal/application/booking"
	catalogapp "github.com/slotbook/backend/internal/application/catalog"
	identityapp "github.com/slotbook/backend/internal/application/identity"
	"github.com/slotbook/backend/internal/domain/billing"
	"github.com/slotbook/backend/internal/domain/booking"
	"github.com/slotbook/backend/internal/domain/catalog"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
)

type mockBookingService struct{ mock.Mock }

func (m *mockBookingService) Create(ctx context.Context, input bookingapp.CreateBookingInput) (*bookingapp.CreateBookingResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookingapp.CreateBookingResult), args.Error(1)
}

func (m *mockBookingService) Link(ctx context.Context, input bookingapp.LinkInput) (*bookingapp.LinkResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookingapp.LinkResult), args.Error(1)
}

func (m *mockBookingService) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]booking.Booking, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.Booking), args.Error(1)
}

func (m *mockBookingService) ListForMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) (shared.Paginated[booking.Booking], error) {
	args := m.Called(ctx, merchantID, filter)
	return args.Get(0).(shared.Paginated[booking.Booking]), args.Error(1)
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, merchantID, bookingID uuid.UUID, status string) (*booking.Booking, error) {
	args := m.Called(ctx, merchantID, bookingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

type mockSubscriptionService struct{ mock.Mock }

func (m *mockSubscriptionService) GetCurrentSubscription(ctx context.Context, merchantID uuid.UUID) (*billing.MerchantSubscription, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.MerchantSubscription), args.Error(1)
}

func (m *mockSubscriptionService) TierFor(ctx context.Context, sub *billing.MerchantSubscription) (billing.SubscriptionTier, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(billing.SubscriptionTier), args.Error(1)
}

func (m *mockSubscriptionService) ListTiers(ctx context.Context) ([]billing.SubscriptionTier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.SubscriptionTier), args.Error(1)
}

func (m *mockSubscriptionService) Upgrade(ctx context.Context, input billingapp.UpgradeInput) (*billing.MerchantSubscription, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.MerchantSubscription), args.Error(1)
}

type mockQuotaService struct{ mock.Mock }

func (m *mockQuotaService) GetQuotaInfo(ctx context.Context, merchantID uuid.UUID) (map[billing.ResourceKind]billing.QuotaInfo, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[billing.ResourceKind]billing.QuotaInfo), args.Error(1)
}

func (m *mockQuotaService) FixUsage(ctx context.Context) (*billingapp.FixUsageReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.FixUsageReport), args.Error(1)
}

// mockMerchantService covers signup, settings and public pages
type mockMerchantService struct{ mock.Mock }

func (m *mockMerchantService) merchant(args mock.Arguments) (*identity.Merchant, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Merchant), args.Error(1)
}

func (m *mockMerchantService) SignUpMerchant(ctx context.Context, input identityapp.SignUpMerchantInput) (*identity.Merchant, error) {
	return m.merchant(m.Called(ctx, input))
}

func (m *mockMerchantService) GetByOwner(ctx context.Context, identityID uuid.UUID) (*identity.Merchant, error) {
	return m.merchant(m.Called(ctx, identityID))
}

func (m *mockMerchantService) UpdateDomain(ctx context.Context, merchantID uuid.UUID, domain string) (*identity.Merchant, error) {
	return m.merchant(m.Called(ctx, merchantID, domain))
}

func (m *mockMerchantService) SetActive(ctx context.Context, merchantID uuid.UUID, active bool) (*identity.Merchant, error) {
	return m.merchant(m.Called(ctx, merchantID, active))
}

func (m *mockMerchantService) SetDirectoryVisible(ctx context.Context, merchantID uuid.UUID, visible bool) (*identity.Merchant, error) {
	return m.merchant(m.Called(ctx, merchantID, visible))
}

func (m *mockMerchantService) UpdateTheme(ctx context.Context, merchantID uuid.UUID, theme map[string]any) (*identity.Merchant, error) {
	return m.merchant(m.Called(ctx, merchantID, theme))
}

func (m *mockMerchantService) GetPublicPage(ctx context.Context, slug string) (*identityapp.PublicMerchantPage, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.PublicMerchantPage), args.Error(1)
}

func (m *mockMerchantService) ListDirectory(ctx context.Context, filter shared.Filter) (shared.Paginated[identity.Merchant], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[identity.Merchant]), args.Error(1)
}

// mockCustomerService covers customer accounts and favorites
type mockCustomerService struct{ mock.Mock }

func (m *mockCustomerService) SignUpCustomer(ctx context.Context, input identityapp.SignUpCustomerInput) (*identity.CustomerAccount, bool, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*identity.CustomerAccount), args.Bool(1), args.Error(2)
}

func (m *mockCustomerService) GetAccount(ctx context.Context, identityID uuid.UUID) (*identity.CustomerAccount, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.CustomerAccount), args.Error(1)
}

func (m *mockCustomerService) ListFavorites(ctx context.Context, customerID uuid.UUID) ([]identity.Favorite, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Favorite), args.Error(1)
}

func (m *mockCustomerService) AddFavorite(ctx context.Context, customerID, merchantID uuid.UUID) error {
	return m.Called(ctx, customerID, merchantID).Error(0)
}

func (m *mockCustomerService) RemoveFavorite(ctx context.Context, customerID, merchantID uuid.UUID) error {
	return m.Called(ctx, customerID, merchantID).Error(0)
}

type mockSessionRouter struct{ mock.Mock }

func (m *mockSessionRouter) Route(ctx context.Context, identityID uuid.UUID) (*identityapp.Routing, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.Routing), args.Error(1)
}

type mockCatalogService struct{ mock.Mock }

func (m *mockCatalogService) ListServices(ctx context.Context, merchantID uuid.UUID) ([]catalog.Service, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Service), args.Error(1)
}

func (m *mockCatalogService) CreateService(ctx context.Context, merchantID uuid.UUID, input catalogapp.CreateServiceInput) (*catalog.Service, error) {
	args := m.Called(ctx, merchantID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Service), args.Error(1)
}

func (m *mockCatalogService) DeleteService(ctx context.Context, merchantID, id uuid.UUID) error {
	return m.Called(ctx, merchantID, id).Error(0)
}

func (m *mockCatalogService) ListProducts(ctx context.Context, merchantID uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, merchantID uuid.UUID, input catalogapp.CreateProductInput) (*catalog.Product, error) {
	args := m.Called(ctx, merchantID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockCatalogService) DeleteProduct(ctx context.Context, merchantID, id uuid.UUID) error {
	return m.Called(ctx, merchantID, id).Error(0)
}

func (m *mockCatalogService) ListGallery(ctx context.Context, merchantID uuid.UUID) ([]catalogapp.GalleryItem, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.GalleryItem), args.Error(1)
}

func (m *mockCatalogService) CreateGalleryImage(ctx context.Context, merchantID uuid.UUID, input catalogapp.CreateGalleryImageInput) (*catalogapp.GalleryUpload, error) {
	args := m.Called(ctx, merchantID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.GalleryUpload), args.Error(1)
}

func (m *mockCatalogService) DeleteGalleryImage(ctx context.Context, merchantID, id uuid.UUID) error {
	return m.Called(ctx, merchantID, id).Error(0)
}

type mockUsageTrigger struct{ mock.Mock }

func (m *mockUsageTrigger) TriggerNow(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
