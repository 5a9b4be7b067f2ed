package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with a version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToAggregateRoot converts AggregateModel to domain BaseAggregateRoot
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.BaseModel.ToDomain(),
		Version:    m.Version,
	}
}

// MerchantAggregateModel is the base of rows owned by one merchant.
// The merchant_id column is what the merchant scope callback filters on.
type MerchantAggregateModel struct {
	AggregateModel
	MerchantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainMerchantAggregateRoot populates MerchantAggregateModel from the domain root
func (m *MerchantAggregateModel) FromDomainMerchantAggregateRoot(a shared.MerchantAggregateRoot) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.MerchantID = a.MerchantID
}

// ToMerchantAggregateRoot converts the model to the domain root
func (m *MerchantAggregateModel) ToMerchantAggregateRoot() shared.MerchantAggregateRoot {
	return shared.MerchantAggregateRoot{
		BaseAggregateRoot: m.ToAggregateRoot(),
		MerchantID:        m.MerchantID,
	}
}

// MerchantScopedTables lists the tables guarded by the merchant scope callback
func MerchantScopedTables() []string {
	return []string{
		ServiceModel{}.TableName(),
		ProductModel{}.TableName(),
		GalleryImageModel{}.TableName(),
		BookingModel{}.TableName(),
		MerchantSubscriptionModel{}.TableName(),
		SubscriptionUsageModel{}.TableName(),
	}
}

// AllModels returns every model, in dependency order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&MerchantModel{},
		&CustomerAccountModel{},
		&UserTypeModel{},
		&FavoriteModel{},
		&SubscriptionTierModel{},
		&MerchantSubscriptionModel{},
		&SubscriptionUsageModel{},
		&ServiceModel{},
		&ProductModel{},
		&GalleryImageModel{},
		&BookingModel{},
	}
}
