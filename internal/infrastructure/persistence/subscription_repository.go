package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/billing"
	"github.com/slotbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTierRepository implements billing.TierRepository using GORM
type GormTierRepository struct {
	db *gorm.DB
}

// NewGormTierRepository creates a new GormTierRepository
func NewGormTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

// FindByKey finds a catalog tier by key
func (r *GormTierRepository) FindByKey(ctx context.Context, key billing.TierKey) (*billing.SubscriptionTier, error) {
	var model models.SubscriptionTierModel
	if err := r.db.WithContext(ctx).Where(&models.SubscriptionTierModel{Key: key}).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns the whole catalog
func (r *GormTierRepository) FindAll(ctx context.Context) ([]billing.SubscriptionTier, error) {
	var rows []models.SubscriptionTierModel
	if err := r.db.WithContext(ctx).Order("price_monthly ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	tiers := make([]billing.SubscriptionTier, len(rows))
	for i := range rows {
		tiers[i] = *rows[i].ToDomain()
	}
	return tiers, nil
}

// GormSubscriptionRepository implements billing.SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindCurrent returns the merchant's current subscription row
func (r *GormSubscriptionRepository) FindCurrent(ctx context.Context, merchantID uuid.UUID) (*billing.MerchantSubscription, error) {
	var model models.MerchantSubscriptionModel
	if err := r.db.WithContext(ctx).First(&model, "merchant_id = ?", merchantID).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ReplaceCurrent deletes the merchant's current row and inserts sub in one
// transaction, so readers see either the old or the new subscription.
func (r *GormSubscriptionRepository) ReplaceCurrent(ctx context.Context, sub *billing.MerchantSubscription) error {
	var model models.MerchantSubscriptionModel
	model.FromDomain(sub)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("merchant_id = ?", sub.MerchantID).
			Delete(&models.MerchantSubscriptionModel{}).Error; err != nil {
			return err
		}
		return tx.Create(&model).Error
	})
	return translateError(err)
}

// GormUsageSnapshotRepository implements billing.UsageSnapshotRepository using GORM
type GormUsageSnapshotRepository struct {
	db *gorm.DB
}

// NewGormUsageSnapshotRepository creates a new GormUsageSnapshotRepository
func NewGormUsageSnapshotRepository(db *gorm.DB) *GormUsageSnapshotRepository {
	return &GormUsageSnapshotRepository{db: db}
}

// Find returns the cached usage row of a merchant
func (r *GormUsageSnapshotRepository) Find(ctx context.Context, merchantID uuid.UUID) (*billing.UsageSnapshot, error) {
	var model models.SubscriptionUsageModel
	if err := r.db.WithContext(ctx).First(&model, "merchant_id = ?", merchantID).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Upsert writes the snapshot, replacing any previous row
func (r *GormUsageSnapshotRepository) Upsert(ctx context.Context, snapshot billing.UsageSnapshot) error {
	var model models.SubscriptionUsageModel
	model.FromDomain(snapshot)
	return translateError(r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "merchant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"services_count", "products_count", "gallery_images_count", "computed_at",
		}),
	}).Create(&model).Error)
}

// GormResourceCounter implements billing.ResourceCounter over the authoritative tables
type GormResourceCounter struct {
	db *gorm.DB
}

// NewGormResourceCounter creates a new GormResourceCounter
func NewGormResourceCounter(db *gorm.DB) *GormResourceCounter {
	return &GormResourceCounter{db: db}
}

// CountLive counts rows of kind owned by the merchant that are not soft-deleted
func (r *GormResourceCounter) CountLive(ctx context.Context, merchantID uuid.UUID, kind billing.ResourceKind) (int64, error) {
	var model any
	switch kind {
	case billing.ResourceServices:
		model = &models.ServiceModel{}
	case billing.ResourceProducts:
		model = &models.ProductModel{}
	case billing.ResourceGalleryImages:
		model = &models.GalleryImageModel{}
	default:
		return 0, translateError(errUnknownResourceKind(kind))
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(model).
		Where("merchant_id = ?", merchantID).
		Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}
