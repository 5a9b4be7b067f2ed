package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
)

// SubscriptionStatus is the state of a merchant subscription
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// MerchantSubscription is the single current tier assignment of a merchant
type MerchantSubscription struct {
	shared.BaseEntity
	MerchantID   uuid.UUID
	TierKey      TierKey
	BillingCycle BillingCycle
	Status       SubscriptionStatus
	StartsAt     time.Time
	ExpiresAt    *time.Time // nil never expires (the free tier)
	Notes        string
}

// NewMerchantSubscription assigns tier to a merchant starting at now.
// Paid tiers expire one billing cycle after now; the free tier never expires.
func NewMerchantSubscription(merchantID uuid.UUID, tier TierKey, cycle BillingCycle, notes string, now time.Time) (*MerchantSubscription, error) {
	if merchantID == uuid.Nil {
		return nil, shared.InvalidInput("merchant id is required")
	}
	if !tier.IsValid() {
		return nil, shared.InvalidInput("unknown subscription tier: " + string(tier))
	}
	if len(notes) > 1000 {
		return nil, shared.InvalidInput("notes cannot exceed 1000 characters")
	}

	sub := &MerchantSubscription{
		BaseEntity:   shared.NewBaseEntity(),
		MerchantID:   merchantID,
		TierKey:      tier,
		BillingCycle: cycle,
		Status:       SubscriptionActive,
		StartsAt:     now,
		Notes:        strings.TrimSpace(notes),
	}
	if tier != TierFree {
		expires := cycle.ExpiryFrom(now)
		sub.ExpiresAt = &expires
	}
	return sub, nil
}

// IsExpiredAt reports whether the subscription had expired at now.
// Expiry is evaluated on read; no job flips the stored status.
func (s *MerchantSubscription) IsExpiredAt(now time.Time) bool {
	if s.Status == SubscriptionExpired {
		return true
	}
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// EvaluatedAt returns a copy with Status reflecting wall-clock expiry at now
func (s *MerchantSubscription) EvaluatedAt(now time.Time) *MerchantSubscription {
	out := *s
	if s.IsExpiredAt(now) {
		out.Status = SubscriptionExpired
	}
	return &out
}

// IsFree reports whether a subscription grants only the free tier: it is
// absent or its tier key is free. This is the single gate for premium features.
func IsFree(sub *MerchantSubscription) bool {
	return sub == nil || sub.TierKey == TierFree
}

// EffectiveTierKey is the tier whose limits apply. Absent or expired
// subscriptions fall back to the most restrictive tier.
func EffectiveTierKey(sub *MerchantSubscription, now time.Time) TierKey {
	if sub == nil || sub.IsExpiredAt(now) {
		return TierFree
	}
	return sub.TierKey
}
