package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotbook/backend/internal/domain/shared"
)

// Unlimited is the limit sentinel meaning "no ceiling"
const Unlimited int64 = -1

// TierKey identifies a subscription tier
type TierKey string

const (
	TierFree TierKey = "free"
	TierPro  TierKey = "pro"
)

// AllTierKeys returns every known tier key
func AllTierKeys() []TierKey {
	return []TierKey{TierFree, TierPro}
}

// IsValid reports whether k is a known tier key
func (k TierKey) IsValid() bool {
	return k == TierFree || k == TierPro
}

// ParseTierKey validates a tier key against the known enum
func ParseTierKey(s string) (TierKey, error) {
	k := TierKey(s)
	if !k.IsValid() {
		return "", shared.InvalidInput("unknown subscription tier: " + s)
	}
	return k, nil
}

// BillingCycle is the renewal period of a subscription
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// ParseBillingCycle validates a billing cycle, defaulting empty to monthly
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch BillingCycle(s) {
	case "", BillingCycleMonthly:
		return BillingCycleMonthly, nil
	case BillingCycleYearly:
		return BillingCycleYearly, nil
	default:
		return "", shared.InvalidInput("billing cycle must be 'monthly' or 'yearly'")
	}
}

// ExpiryFrom returns the expiry of a cycle that starts at from
func (c BillingCycle) ExpiryFrom(from time.Time) time.Time {
	if c == BillingCycleYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

// SubscriptionTier is a catalog entry with numeric limits
type SubscriptionTier struct {
	Key              TierKey
	Name             string
	MaxServices      int64
	MaxProducts      int64
	MaxGalleryImages int64
	PriceMonthly     decimal.Decimal
	PriceYearly      decimal.Decimal
}

// LimitFor returns the tier's limit for kind. Unknown kinds get zero.
func (t SubscriptionTier) LimitFor(kind ResourceKind) int64 {
	switch kind {
	case ResourceServices:
		return t.MaxServices
	case ResourceProducts:
		return t.MaxProducts
	case ResourceGalleryImages:
		return t.MaxGalleryImages
	default:
		return 0
	}
}

// PriceFor returns the price of one billing cycle
func (t SubscriptionTier) PriceFor(cycle BillingCycle) decimal.Decimal {
	if cycle == BillingCycleYearly {
		return t.PriceYearly
	}
	return t.PriceMonthly
}

// DefaultTiers is the built-in catalog, used when the tier table lacks a row
func DefaultTiers() map[TierKey]SubscriptionTier {
	return map[TierKey]SubscriptionTier{
		TierFree: {
			Key:              TierFree,
			Name:             "Free",
			MaxServices:      5,
			MaxProducts:      10,
			MaxGalleryImages: 10,
			PriceMonthly:     decimal.Zero,
			PriceYearly:      decimal.Zero,
		},
		TierPro: {
			Key:              TierPro,
			Name:             "Pro",
			MaxServices:      Unlimited,
			MaxProducts:      Unlimited,
			MaxGalleryImages: Unlimited,
			PriceMonthly:     decimal.RequireFromString("19.00"),
			PriceYearly:      decimal.RequireFromString("190.00"),
		},
	}
}

// DefaultTier returns the built-in tier for key, falling back to free
func DefaultTier(key TierKey) SubscriptionTier {
	tiers := DefaultTiers()
	if t, ok := tiers[key]; ok {
		return t
	}
	return tiers[TierFree]
}
