package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
)

// Error codes specific to identity persistence
const (
	CodeSlugTaken   = "SLUG_TAKEN"
	CodeDomainTaken = "DOMAIN_TAKEN"
)

var (
	// ErrSlugTaken is returned by Create when the slug unique constraint fires
	ErrSlugTaken = shared.NewDomainError(CodeSlugTaken, "slug is already taken")
	// ErrDomainTaken is returned when another merchant owns the custom domain
	ErrDomainTaken = shared.NewDomainError(CodeDomainTaken, "custom domain is already in use")
)

// MerchantRepository defines persistence for merchants
type MerchantRepository interface {
	// FindByID finds a merchant by id regardless of active state
	FindByID(ctx context.Context, id uuid.UUID) (*Merchant, error)

	// FindBySlug finds a merchant by slug regardless of active state
	FindBySlug(ctx context.Context, slug string) (*Merchant, error)

	// FindActiveByCustomDomain finds an active merchant whose custom domain equals domain exactly
	FindActiveByCustomDomain(ctx context.Context, domain string) (*Merchant, error)

	// FindByOwner finds the merchant operated by an identity
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*Merchant, error)

	// ExistsBySlug reports whether any merchant uses slug
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// ExistsByOwner reports whether an identity operates a merchant
	ExistsByOwner(ctx context.Context, ownerID uuid.UUID) (bool, error)

	// ListDirectory lists active, directory-visible merchants
	ListDirectory(ctx context.Context, filter shared.Filter) ([]Merchant, int64, error)

	// ListIDs returns the ids of every merchant
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// Create inserts a merchant. A slug collision returns ErrSlugTaken.
	Create(ctx context.Context, merchant *Merchant) error

	// Save updates a merchant. A custom domain collision returns ErrDomainTaken.
	Save(ctx context.Context, merchant *Merchant) error
}

// CustomerAccountRepository defines persistence for customer accounts
type CustomerAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CustomerAccount, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, account *CustomerAccount) error
	Save(ctx context.Context, account *CustomerAccount) error
}

// UserTypeRepository defines persistence for role tags
type UserTypeRepository interface {
	// Find returns shared.ErrNotFound when the identity has no tag
	Find(ctx context.Context, identityID uuid.UUID) (*UserTypeRecord, error)

	// Upsert creates or replaces the identity's single tag
	Upsert(ctx context.Context, record *UserTypeRecord) error

	// CreateIfAbsent stores the tag only when the identity has none yet
	CreateIfAbsent(ctx context.Context, record *UserTypeRecord) error
}

// FavoriteRepository defines persistence for customer favorites
type FavoriteRepository interface {
	List(ctx context.Context, customerID uuid.UUID) ([]Favorite, error)
	Add(ctx context.Context, favorite Favorite) error
	Remove(ctx context.Context, customerID, merchantID uuid.UUID) error
}

// CustomDomainCache caches custom-domain lookups. A hit with an empty slug is
// a cached negative result.
type CustomDomainCache interface {
	Get(ctx context.Context, domain string) (slug string, hit bool, err error)
	Set(ctx context.Context, domain, slug string, ttl time.Duration) error
	Invalidate(ctx context.Context, domains ...string) error
}
