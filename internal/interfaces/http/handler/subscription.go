package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	billingapp "github.com/slotbook/backend/internal/application/billing"
	"github.com/slotbook/backend/internal/domain/billing"
	"github.com/slotbook/backend/internal/infrastructure/logger"
	"github.com/slotbook/backend/internal/interfaces/http/dto"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
)

// SubscriptionService reads and assigns merchant subscriptions
type SubscriptionService interface {
	GetCurrentSubscription(ctx context.Context, merchantID uuid.UUID) (*billing.MerchantSubscription, error)
	TierFor(ctx context.Context, sub *billing.MerchantSubscription) (billing.SubscriptionTier, error)
	ListTiers(ctx context.Context) ([]billing.SubscriptionTier, error)
	Upgrade(ctx context.Context, input billingapp.UpgradeInput) (*billing.MerchantSubscription, error)
}

// QuotaService reports usage against limits and repairs drifted counters
type QuotaService interface {
	GetQuotaInfo(ctx context.Context, merchantID uuid.UUID) (map[billing.ResourceKind]billing.QuotaInfo, error)
	FixUsage(ctx context.Context) (*billingapp.FixUsageReport, error)
}

// UsageTrigger starts a usage reconciliation in the background
type UsageTrigger interface {
	TriggerNow(ctx context.Context) error
}

// SubscriptionHandler serves subscription and quota endpoints
type SubscriptionHandler struct {
	BaseHandler
	subscriptions SubscriptionService
	quotas        QuotaService
	trigger       UsageTrigger
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptions SubscriptionService, quotas QuotaService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, quotas: quotas}
}

// WithUsageTrigger enables POST /admin/fix-usage?async=true
func (h *SubscriptionHandler) WithUsageTrigger(trigger UsageTrigger) *SubscriptionHandler {
	h.trigger = trigger
	return h
}

// FixUsageQuery selects between an inline recount and a background one
type FixUsageQuery struct {
	Async bool `form:"async"`
}

// FixUsageAcceptedResponse acknowledges a background recount
type FixUsageAcceptedResponse struct {
	Status string `json:"status"`
}

// UpgradeSubscriptionRequest assigns a tier to a merchant
type UpgradeSubscriptionRequest struct {
	MerchantID   string `json:"merchant_id" binding:"required,uuid"`
	Tier         string `json:"tier" binding:"required,tier_key"`
	BillingCycle string `json:"billing_cycle" binding:"omitempty,oneof=monthly yearly"`
	Notes        string `json:"notes" binding:"max=500"`
}

// TierResponse describes a tier and its limits. A limit of -1 is unlimited.
type TierResponse struct {
	Key              string          `json:"key"`
	Name             string          `json:"name"`
	MaxServices      int64           `json:"max_services"`
	MaxProducts      int64           `json:"max_products"`
	MaxGalleryImages int64           `json:"max_gallery_images"`
	PriceMonthly     decimal.Decimal `json:"price_monthly"`
	PriceYearly      decimal.Decimal `json:"price_yearly"`
}

// SubscriptionResponse is a stored subscription row
type SubscriptionResponse struct {
	ID           uuid.UUID  `json:"id"`
	MerchantID   uuid.UUID  `json:"merchant_id"`
	Tier         string     `json:"tier"`
	BillingCycle string     `json:"billing_cycle"`
	Status       string     `json:"status"`
	StartsAt     time.Time  `json:"starts_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// CurrentSubscriptionResponse is the caller's subscription and the tier that
// actually applies. Subscription is null for merchants without a row.
type CurrentSubscriptionResponse struct {
	Subscription  *SubscriptionResponse `json:"subscription"`
	EffectiveTier TierResponse          `json:"effective_tier"`
	IsFree        bool                  `json:"is_free"`
}

func toTierResponse(t billing.SubscriptionTier) TierResponse {
	return TierResponse{
		Key:              string(t.Key),
		Name:             t.Name,
		MaxServices:      t.MaxServices,
		MaxProducts:      t.MaxProducts,
		MaxGalleryImages: t.MaxGalleryImages,
		PriceMonthly:     t.PriceMonthly,
		PriceYearly:      t.PriceYearly,
	}
}

func toSubscriptionResponse(s *billing.MerchantSubscription) *SubscriptionResponse {
	if s == nil {
		return nil
	}
	return &SubscriptionResponse{
		ID:           s.ID,
		MerchantID:   s.MerchantID,
		Tier:         string(s.TierKey),
		BillingCycle: string(s.BillingCycle),
		Status:       string(s.Status),
		StartsAt:     s.StartsAt,
		ExpiresAt:    s.ExpiresAt,
		Notes:        s.Notes,
	}
}

// GetCurrent handles GET /subscriptions/current
//
//	@ID				getCurrentSubscription
//	@Summary		Get the merchant's subscription
//	@Description	The stored subscription and the tier that applies. Expired subscriptions fall back to free limits.
//	@Tags			subscriptions
//	@Produce		json
//	@Success		200	{object}	APIResponse[CurrentSubscriptionResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/subscriptions/current [get]
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.subscriptions.GetCurrentSubscription(ctx, middleware.GetMerchantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	tier, err := h.subscriptions.TierFor(ctx, sub)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CurrentSubscriptionResponse{
		Subscription:  toSubscriptionResponse(sub),
		EffectiveTier: toTierResponse(tier),
		IsFree:        billing.IsFree(sub),
	})
}

// GetQuota handles GET /subscriptions/quota
//
//	@ID				getQuota
//	@Summary		Get quota usage
//	@Description	Live usage against the tier limits, keyed by resource kind.
//	@Tags			subscriptions
//	@Produce		json
//	@Success		200	{object}	APIResponse[map[string]billing.QuotaInfo]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/subscriptions/quota [get]
func (h *SubscriptionHandler) GetQuota(c *gin.Context) {
	info, err := h.quotas.GetQuotaInfo(c.Request.Context(), middleware.GetMerchantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// ListTiers handles GET /subscriptions/tiers
//
//	@ID				listTiers
//	@Summary		List subscription tiers
//	@Tags			subscriptions
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]TierResponse]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/subscriptions/tiers [get]
func (h *SubscriptionHandler) ListTiers(c *gin.Context) {
	tiers, err := h.subscriptions.ListTiers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]TierResponse, len(tiers))
	for i, t := range tiers {
		out[i] = toTierResponse(t)
	}
	h.Success(c, out)
}

// Upgrade handles POST /subscriptions/upgrade (admin only)
//
//	@ID				upgradeSubscription
//	@Summary		Assign a tier to a merchant
//	@Description	Admin only. Replaces the merchant's current subscription.
//	@Tags			subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			request	body	UpgradeSubscriptionRequest	true	"Upgrade"
//	@Success		200	{object}	APIResponse[SubscriptionResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/subscriptions/upgrade [post]
func (h *SubscriptionHandler) Upgrade(c *gin.Context) {
	var req UpgradeSubscriptionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptions.Upgrade(c.Request.Context(), billingapp.UpgradeInput{
		MerchantID:   uuid.MustParse(req.MerchantID),
		TierKey:      req.Tier,
		BillingCycle: req.BillingCycle,
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSubscriptionResponse(sub))
}

// FixUsage handles POST /admin/fix-usage. It recounts every merchant's
// resources and reports the counters that had drifted. With async=true the
// recount is handed to the background reconciler and the answer is 202.
//
//	@ID				fixUsage
//	@Summary		Recount merchant usage
//	@Description	Admin or service only. Repairs cached usage counters from live rows.
//	@Tags			admin
//	@Produce		json
//	@Param			async	query		bool	false	"Run in the background reconciler"
//	@Success		200		{object}	APIResponse[billingapp.FixUsageReport]
//	@Success		202		{object}	APIResponse[FixUsageAcceptedResponse]
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/admin/fix-usage [post]
func (h *SubscriptionHandler) FixUsage(c *gin.Context) {
	var query FixUsageQuery
	if !h.bindQuery(c, &query) {
		return
	}
	if query.Async {
		h.triggerFixUsage(c)
		return
	}

	report, err := h.quotas.FixUsage(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

func (h *SubscriptionHandler) triggerFixUsage(c *gin.Context) {
	if h.trigger == nil {
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, "Usage reconciler is not running")
		return
	}
	// the run outlives the request
	if err := h.trigger.TriggerNow(context.WithoutCancel(c.Request.Context())); err != nil {
		logger.GetGinLogger(c).Warn("Usage reconciliation not triggered", zap.Error(err))
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, "Usage reconciler is not running")
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(FixUsageAcceptedResponse{Status: "scheduled"}))
}
