package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics records booking, quota and tenant-routing activity.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	bookingCreatedTotal   *Counter
	bookingAmountTotal    *Counter
	bookingLinkTotal      *Counter
	quotaDeniedTotal      *Counter
	tenantResolutionTotal *Counter
	subscriptionUpgrades  *Counter
	resourceUsage         *Gauge
	tenantLookupDuration  *Histogram
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error
	if bm.bookingCreatedTotal, err = NewCounter(cfg.Meter,
		"slotbook_booking_created_total",
		"Total number of bookings created",
		"{bookings}",
	); err != nil {
		return nil, err
	}
	if bm.bookingAmountTotal, err = NewCounter(cfg.Meter,
		"slotbook_booking_amount_total",
		"Total booked amount in cents",
		"{cents}",
	); err != nil {
		return nil, err
	}
	if bm.bookingLinkTotal, err = NewCounter(cfg.Meter,
		"slotbook_booking_link_total",
		"Booking link attempts by outcome",
		"{attempts}",
	); err != nil {
		return nil, err
	}
	if bm.quotaDeniedTotal, err = NewCounter(cfg.Meter,
		"slotbook_quota_denied_total",
		"Resource creations refused by plan limits",
		"{denials}",
	); err != nil {
		return nil, err
	}
	if bm.tenantResolutionTotal, err = NewCounter(cfg.Meter,
		"slotbook_tenant_resolution_total",
		"Host resolutions by outcome",
		"{requests}",
	); err != nil {
		return nil, err
	}
	if bm.subscriptionUpgrades, err = NewCounter(cfg.Meter,
		"slotbook_subscription_change_total",
		"Subscription tier assignments",
		"{changes}",
	); err != nil {
		return nil, err
	}
	if bm.resourceUsage, err = NewGauge(cfg.Meter,
		"slotbook_resource_usage",
		"Live quota-gated resources per merchant, recomputed by fix-usage",
		"{items}",
	); err != nil {
		return nil, err
	}
	if bm.tenantLookupDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "slotbook_tenant_lookup_duration_seconds",
		Description: "Custom domain lookup latency",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	}); err != nil {
		return nil, err
	}

	return bm, nil
}

// LinkOutcome labels the result of a booking link attempt.
type LinkOutcome string

const (
	LinkOutcomeLinked        LinkOutcome = "linked"
	LinkOutcomeAlreadyLinked LinkOutcome = "already_linked"
	LinkOutcomeConflict      LinkOutcome = "conflict"
	LinkOutcomeRejected      LinkOutcome = "rejected"
)

// ResolutionOutcome labels the result of a host resolution.
type ResolutionOutcome string

const (
	ResolutionRewrite     ResolutionOutcome = "rewrite"
	ResolutionPassThrough ResolutionOutcome = "pass_through"
	ResolutionLookupError ResolutionOutcome = "lookup_error"
)

// RecordBookingCreated records a booking and its total.
func (bm *BusinessMetrics) RecordBookingCreated(ctx context.Context, merchantID uuid.UUID, total decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrMerchantID.String(merchantID.String())}
	bm.bookingCreatedTotal.Inc(ctx, attrs...)
	cents := total.Mul(decimal.NewFromInt(100)).IntPart()
	if cents > 0 {
		bm.bookingAmountTotal.Add(ctx, cents, attrs...)
	}
}

// RecordBookingLink records the outcome of a link attempt.
func (bm *BusinessMetrics) RecordBookingLink(ctx context.Context, outcome LinkOutcome, viaHandle bool) {
	bm.bookingLinkTotal.Inc(ctx,
		AttrOutcome.String(string(outcome)),
		AttrViaHandle.Bool(viaHandle),
	)
}

// RecordQuotaDenied records a creation refused by plan limits.
func (bm *BusinessMetrics) RecordQuotaDenied(ctx context.Context, merchantID uuid.UUID, kind, tier string) {
	bm.quotaDeniedTotal.Inc(ctx,
		AttrMerchantID.String(merchantID.String()),
		AttrResourceKind.String(kind),
		AttrTier.String(tier),
	)
}

// RecordTenantResolution records how a request host was routed.
func (bm *BusinessMetrics) RecordTenantResolution(ctx context.Context, outcome ResolutionOutcome, reason string) {
	bm.tenantResolutionTotal.Inc(ctx,
		AttrOutcome.String(string(outcome)),
		AttrReason.String(reason),
	)
}

// RecordTenantLookup records the latency of a custom domain lookup.
func (bm *BusinessMetrics) RecordTenantLookup(ctx context.Context, seconds float64, cached bool) {
	bm.tenantLookupDuration.Record(ctx, seconds, AttrCached.Bool(cached))
}

// RecordSubscriptionChange records a tier assignment.
func (bm *BusinessMetrics) RecordSubscriptionChange(ctx context.Context, tier, cycle string) {
	bm.subscriptionUpgrades.Inc(ctx,
		AttrTier.String(tier),
		AttrBillingCycle.String(cycle),
	)
}

// RecordResourceUsage records the live count of one resource kind.
func (bm *BusinessMetrics) RecordResourceUsage(ctx context.Context, merchantID uuid.UUID, kind string, count int64) {
	bm.resourceUsage.Record(ctx, count,
		AttrMerchantID.String(merchantID.String()),
		AttrResourceKind.String(kind),
	)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
