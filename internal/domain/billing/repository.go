package billing

import (
	"context"

	"github.com/google/uuid"
)

// TierRepository reads the tier catalog
type TierRepository interface {
	// FindByKey returns shared.ErrNotFound when the catalog lacks the key
	FindByKey(ctx context.Context, key TierKey) (*SubscriptionTier, error)
	FindAll(ctx context.Context) ([]SubscriptionTier, error)
}

// SubscriptionRepository persists the current subscription of each merchant
type SubscriptionRepository interface {
	// FindCurrent returns shared.ErrNotFound when the merchant has no subscription row
	FindCurrent(ctx context.Context, merchantID uuid.UUID) (*MerchantSubscription, error)

	// ReplaceCurrent atomically swaps the merchant's current row for sub
	ReplaceCurrent(ctx context.Context, sub *MerchantSubscription) error
}

// ResourceCounter counts live rows in the authoritative resource tables
type ResourceCounter interface {
	CountLive(ctx context.Context, merchantID uuid.UUID, kind ResourceKind) (int64, error)
}

// UsageSnapshotRepository reads and writes the usage cache
type UsageSnapshotRepository interface {
	// Find returns shared.ErrNotFound when no snapshot exists
	Find(ctx context.Context, merchantID uuid.UUID) (*UsageSnapshot, error)
	Upsert(ctx context.Context, snapshot UsageSnapshot) error
}
