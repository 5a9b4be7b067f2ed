package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slotbook/backend/internal/domain/billing"
)

// SubscriptionTierModel is a row of the tier catalog.
type SubscriptionTierModel struct {
	Key              billing.TierKey `gorm:"type:varchar(20);primaryKey"`
	Name             string          `gorm:"type:varchar(100);not null"`
	MaxServices      int64           `gorm:"not null;default:-1"`
	MaxProducts      int64           `gorm:"not null;default:-1"`
	MaxGalleryImages int64           `gorm:"not null;default:-1"`
	PriceMonthly     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PriceYearly      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (SubscriptionTierModel) TableName() string {
	return "subscription_tiers"
}

// ToDomain converts the persistence model to a domain SubscriptionTier.
func (m *SubscriptionTierModel) ToDomain() *billing.SubscriptionTier {
	return &billing.SubscriptionTier{
		Key:              m.Key,
		Name:             m.Name,
		MaxServices:      m.MaxServices,
		MaxProducts:      m.MaxProducts,
		MaxGalleryImages: m.MaxGalleryImages,
		PriceMonthly:     m.PriceMonthly,
		PriceYearly:      m.PriceYearly,
	}
}

// FromDomain populates the persistence model from a domain SubscriptionTier.
func (m *SubscriptionTierModel) FromDomain(t billing.SubscriptionTier) {
	m.Key = t.Key
	m.Name = t.Name
	m.MaxServices = t.MaxServices
	m.MaxProducts = t.MaxProducts
	m.MaxGalleryImages = t.MaxGalleryImages
	m.PriceMonthly = t.PriceMonthly
	m.PriceYearly = t.PriceYearly
}

// MerchantSubscriptionModel is the current subscription of a merchant.
// The unique merchant_id index keeps one current row per merchant.
type MerchantSubscriptionModel struct {
	BaseModel
	MerchantID   uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex"`
	TierKey      billing.TierKey            `gorm:"type:varchar(20);not null"`
	BillingCycle billing.BillingCycle       `gorm:"type:varchar(20);not null;default:'monthly'"`
	Status       billing.SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active'"`
	StartsAt     time.Time                  `gorm:"not null"`
	ExpiresAt    *time.Time
	Notes        string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (MerchantSubscriptionModel) TableName() string {
	return "merchant_subscriptions"
}

// ToDomain converts the persistence model to a domain MerchantSubscription.
func (m *MerchantSubscriptionModel) ToDomain() *billing.MerchantSubscription {
	return &billing.MerchantSubscription{
		BaseEntity:   m.BaseModel.ToDomain(),
		MerchantID:   m.MerchantID,
		TierKey:      m.TierKey,
		BillingCycle: m.BillingCycle,
		Status:       m.Status,
		StartsAt:     m.StartsAt,
		ExpiresAt:    m.ExpiresAt,
		Notes:        m.Notes,
	}
}

// FromDomain populates the persistence model from a domain MerchantSubscription.
func (m *MerchantSubscriptionModel) FromDomain(s *billing.MerchantSubscription) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.MerchantID = s.MerchantID
	m.TierKey = s.TierKey
	m.BillingCycle = s.BillingCycle
	m.Status = s.Status
	m.StartsAt = s.StartsAt
	m.ExpiresAt = s.ExpiresAt
	m.Notes = s.Notes
}

// SubscriptionUsageModel is the per-merchant usage cache row.
type SubscriptionUsageModel struct {
	MerchantID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServicesCount      int64     `gorm:"not null;default:0"`
	ProductsCount      int64     `gorm:"not null;default:0"`
	GalleryImagesCount int64     `gorm:"not null;default:0"`
	ComputedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SubscriptionUsageModel) TableName() string {
	return "subscription_usage"
}

// ToDomain converts the persistence model to a domain UsageSnapshot.
func (m *SubscriptionUsageModel) ToDomain() *billing.UsageSnapshot {
	return &billing.UsageSnapshot{
		MerchantID:    m.MerchantID,
		Services:      m.ServicesCount,
		Products:      m.ProductsCount,
		GalleryImages: m.GalleryImagesCount,
		ComputedAt:    m.ComputedAt,
	}
}

// FromDomain populates the persistence model from a domain UsageSnapshot.
func (m *SubscriptionUsageModel) FromDomain(s billing.UsageSnapshot) {
	m.MerchantID = s.MerchantID
	m.ServicesCount = s.Services
	m.ProductsCount = s.Products
	m.GalleryImagesCount = s.GalleryImages
	m.ComputedAt = s.ComputedAt
}
