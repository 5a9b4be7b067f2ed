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

// UsageDrift describes a cache row whose counts differed from the live tables
type UsageDrift struct {
	MerchantID uuid.UUID              `json:"merchant_id"`
	Cached     *billing.UsageSnapshot `json:"cached,omitempty"`
	Actual     billing.UsageSnapshot  `json:"actual"`
}

// FixUsageReport summarises a reconciliation run
type FixUsageReport struct {
	MerchantsProcessed int          `json:"merchants_processed"`
	Drifted            []UsageDrift `json:"drifted"`
	StartedAt          time.Time    `json:"started_at"`
	FinishedAt         time.Time    `json:"finished_at"`
}

// QuotaService decides whether a merchant may create more quota-gated resources.
//
// Decisions count live rows at call time and nothing is reserved between the
// check and the insert. Concurrent creations for one merchant can therefore
// overshoot a finite limit by at most the number of requests in flight. The
// next check after they land denies again.
type QuotaService struct {
	subscriptions *SubscriptionService
	counter       billing.ResourceCounter
	usage         billing.UsageSnapshotRepository
	merchants     identity.MerchantRepository
	logger        *zap.Logger
	metrics       *telemetry.BusinessMetrics
}

// NewQuotaService creates a new QuotaService
func NewQuotaService(
	subscriptions *SubscriptionService,
	counter billing.ResourceCounter,
	usage billing.UsageSnapshotRepository,
	merchants identity.MerchantRepository,
	logger *zap.Logger,
) *QuotaService {
	return &QuotaService{
		subscriptions: subscriptions,
		counter:       counter,
		usage:         usage,
		merchants:     merchants,
		logger:        logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *QuotaService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// CanCreate reports whether the merchant may create one more item of kind
func (s *QuotaService) CanCreate(ctx context.Context, kind billing.ResourceKind, merchantID uuid.UUID) (bool, error) {
	err := s.CheckCreate(ctx, kind, merchantID)
	if err == nil {
		return true, nil
	}
	var exceeded *billing.ExceededError
	if errors.As(err, &exceeded) {
		return false, nil
	}
	return false, err
}

// CheckCreate returns a *billing.ExceededError when the merchant is at its limit for kind
func (s *QuotaService) CheckCreate(ctx context.Context, kind billing.ResourceKind, merchantID uuid.UUID) error {
	if !kind.IsValid() {
		return shared.InvalidInput("unknown resource kind: " + string(kind))
	}
	sub, err := s.subscriptions.GetCurrentSubscription(ctx, merchantID)
	if err != nil {
		return err
	}
	tier, err := s.subscriptions.TierFor(ctx, sub)
	if err != nil {
		return err
	}

	limit := tier.LimitFor(kind)
	if limit == billing.Unlimited {
		return nil
	}
	used, err := s.counter.CountLive(ctx, merchantID, kind)
	if err != nil {
		return err
	}
	if billing.NewQuotaInfo(used, limit).Allows() {
		return nil
	}

	s.logger.Info("Quota denied",
		zap.String("merchant_id", merchantID.String()),
		zap.String("kind", string(kind)),
		zap.Int64("used", used),
		zap.Int64("limit", limit),
		zap.String("tier", string(tier.Key)),
	)
	if s.metrics != nil {
		s.metrics.RecordQuotaDenied(ctx, merchantID, string(kind), string(tier.Key))
	}
	return &billing.ExceededError{
		MerchantID: merchantID,
		Kind:       kind,
		Used:       used,
		Limit:      limit,
		Tier:       tier.Key,
	}
}

// GetQuotaInfo returns usage against the limit for every resource kind
func (s *QuotaService) GetQuotaInfo(ctx context.Context, merchantID uuid.UUID) (map[billing.ResourceKind]billing.QuotaInfo, error) {
	sub, err := s.subscriptions.GetCurrentSubscription(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	tier, err := s.subscriptions.TierFor(ctx, sub)
	if err != nil {
		return nil, err
	}

	out := make(map[billing.ResourceKind]billing.QuotaInfo, len(billing.AllResourceKinds()))
	for _, kind := range billing.AllResourceKinds() {
		used, err := s.counter.CountLive(ctx, merchantID, kind)
		if err != nil {
			return nil, err
		}
		out[kind] = billing.NewQuotaInfo(used, tier.LimitFor(kind))
	}
	return out, nil
}

// FixUsage recomputes the usage cache of every merchant from the live tables.
// Running it twice in a row reports no drift the second time.
func (s *QuotaService) FixUsage(ctx context.Context) (*FixUsageReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quota", "fix_usage")
	defer span.End()
	ctx = shared.WithElevatedAccess(ctx)

	report := &FixUsageReport{StartedAt: time.Now(), Drifted: []UsageDrift{}}
	ids, err := s.merchants.ListIDs(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	for _, id := range ids {
		actual, err := s.liveSnapshot(ctx, id)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		cached, err := s.usage.Find(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, shared.ErrNotFound):
			cached = nil
		default:
			return nil, err
		}

		if cached == nil || !cached.SameCounts(actual) {
			report.Drifted = append(report.Drifted, UsageDrift{MerchantID: id, Cached: cached, Actual: actual})
			if err := s.usage.Upsert(ctx, actual); err != nil {
				return nil, err
			}
		}
		report.MerchantsProcessed++

		if s.metrics != nil {
			for _, kind := range billing.AllResourceKinds() {
				s.metrics.RecordResourceUsage(ctx, id, string(kind), actual.Count(kind))
			}
		}
	}

	report.FinishedAt = time.Now()
	telemetry.SetAttributes(span, "merchants", report.MerchantsProcessed, "drifted", len(report.Drifted))
	s.logger.Info("Usage cache reconciled",
		zap.Int("merchants", report.MerchantsProcessed),
		zap.Int("drifted", len(report.Drifted)),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (s *QuotaService) liveSnapshot(ctx context.Context, merchantID uuid.UUID) (billing.UsageSnapshot, error) {
	snap := billing.UsageSnapshot{MerchantID: merchantID, ComputedAt: time.Now()}
	var err error
	if snap.Services, err = s.counter.CountLive(ctx, merchantID, billing.ResourceServices); err != nil {
		return snap, err
	}
	if snap.Products, err = s.counter.CountLive(ctx, merchantID, billing.ResourceProducts); err != nil {
		return snap, err
	}
	if snap.GalleryImages, err = s.counter.CountLive(ctx, merchantID, billing.ResourceGalleryImages); err != nil {
		return snap, err
	}
	return snap, nil
}
