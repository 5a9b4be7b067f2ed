// Package billing implements subscription state and the quota ledger on top
// of the billing domain.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/domain/billing"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/telemetry"
)

// UpgradeInput is the administrative tier assignment request
type UpgradeInput struct {
	MerchantID   uuid.UUID
	TierKey      string
	BillingCycle string
	Notes        string
}

// SubscriptionService reads and assigns merchant subscriptions
type SubscriptionService struct {
	subs      billing.SubscriptionRepository
	tiers     billing.TierRepository
	merchants identity.MerchantRepository
	logger    *zap.Logger
	metrics   *telemetry.BusinessMetrics
	now       func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(
	subs billing.SubscriptionRepository,
	tiers billing.TierRepository,
	merchants identity.MerchantRepository,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subs:      subs,
		tiers:     tiers,
		merchants: merchants,
		logger:    logger,
		now:       time.Now,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *SubscriptionService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// GetCurrentSubscription returns the merchant's subscription with its status
// evaluated against the current time. It returns nil, nil when the merchant
// has no subscription row; callers treat that as the free tier.
func (s *SubscriptionService) GetCurrentSubscription(ctx context.Context, merchantID uuid.UUID) (*billing.MerchantSubscription, error) {
	sub, err := s.subs.FindCurrent(ctx, merchantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub.EvaluatedAt(s.now()), nil
}

// IsFree reports whether sub grants only the free tier
func (s *SubscriptionService) IsFree(sub *billing.MerchantSubscription) bool {
	return billing.IsFree(sub)
}

// EffectiveLayout overrides the stored layout with the baseline for merchants
// without an active paid tier. The stored preference is kept untouched so it
// comes back after an upgrade.
func (s *SubscriptionService) EffectiveLayout(sub *billing.MerchantSubscription, storedLayout string) string {
	if billing.EffectiveTierKey(sub, s.now()) == billing.TierFree || storedLayout == "" {
		return identity.LayoutBaseline
	}
	return storedLayout
}

// TierFor returns the tier whose limits apply to sub. A catalog without the
// tier's row falls back to the built-in definition.
func (s *SubscriptionService) TierFor(ctx context.Context, sub *billing.MerchantSubscription) (billing.SubscriptionTier, error) {
	key := billing.EffectiveTierKey(sub, s.now())
	tier, err := s.tiers.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return billing.DefaultTier(key), nil
		}
		return billing.SubscriptionTier{}, err
	}
	return *tier, nil
}

// ListTiers returns the tier catalog, or the built-in tiers when it is empty
func (s *SubscriptionService) ListTiers(ctx context.Context) ([]billing.SubscriptionTier, error) {
	tiers, err := s.tiers.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(tiers) > 0 {
		return tiers, nil
	}
	defaults := billing.DefaultTiers()
	out := make([]billing.SubscriptionTier, 0, len(defaults))
	for _, key := range billing.AllTierKeys() {
		out = append(out, defaults[key])
	}
	return out, nil
}

// Upgrade replaces the merchant's current subscription. It is an
// administrative action on another tenant's data, so it runs elevated.
func (s *SubscriptionService) Upgrade(ctx context.Context, input UpgradeInput) (*billing.MerchantSubscription, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "upgrade",
		telemetry.SpanAttrMerchantID, input.MerchantID.String())
	defer span.End()

	tier, err := billing.ParseTierKey(input.TierKey)
	if err != nil {
		return nil, err
	}
	cycle, err := billing.ParseBillingCycle(input.BillingCycle)
	if err != nil {
		return nil, err
	}

	ctx = shared.WithElevatedAccess(ctx)
	if _, err := s.merchants.FindByID(ctx, input.MerchantID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("merchant")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	sub, err := billing.NewMerchantSubscription(input.MerchantID, tier, cycle, input.Notes, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.subs.ReplaceCurrent(ctx, sub); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Subscription assigned",
		zap.String("merchant_id", input.MerchantID.String()),
		zap.String("tier", string(tier)),
		zap.String("billing_cycle", string(cycle)),
	)
	if s.metrics != nil {
		s.metrics.RecordSubscriptionChange(ctx, string(tier), string(cycle))
	}
	return sub, nil
}

// AssignFree gives a new merchant its free subscription row
func (s *SubscriptionService) AssignFree(ctx context.Context, merchantID uuid.UUID) (*billing.MerchantSubscription, error) {
	sub, err := billing.NewMerchantSubscription(merchantID, billing.TierFree, billing.BillingCycleMonthly, "", s.now())
	if err != nil {
		return nil, err
	}
	if err := s.subs.ReplaceCurrent(shared.WithElevatedAccess(ctx), sub); err != nil {
		return nil, err
	}
	return sub, nil
}
