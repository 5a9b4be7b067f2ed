package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/catalog"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/persistence/models"
	"github.com/slotbook/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// softDelete soft-deletes one merchant-owned row and reports NotFound when
// no live row matched.
func softDelete(ctx context.Context, db *gorm.DB, model any, merchantID, id uuid.UUID) error {
	result := db.WithContext(ctx).
		Where("merchant_id = ? AND id = ?", merchantID, id).
		Delete(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormServiceRepository implements catalog.ServiceRepository using GORM
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// ListByMerchant lists live services of a merchant
func (r *GormServiceRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]catalog.Service, error) {
	var rows []models.ServiceModel
	if err := r.db.WithContext(ctx).Scopes(tenant.MerchantScope(merchantID)).Order("created_at").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	services := make([]catalog.Service, len(rows))
	for i := range rows {
		services[i] = *rows[i].ToDomain()
	}
	return services, nil
}

// Create inserts a service
func (r *GormServiceRepository) Create(ctx context.Context, service *catalog.Service) error {
	var model models.ServiceModel
	model.FromDomain(service)
	return translateError(r.db.WithContext(ctx).Create(&model).Error)
}

// SoftDelete marks a service deleted
func (r *GormServiceRepository) SoftDelete(ctx context.Context, merchantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.ServiceModel{}, merchantID, id)
}

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// ListByMerchant lists live products of a merchant
func (r *GormProductRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Scopes(tenant.MerchantScope(merchantID)).Order("created_at").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Create inserts a product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	var model models.ProductModel
	model.FromDomain(product)
	return translateError(r.db.WithContext(ctx).Create(&model).Error)
}

// SoftDelete marks a product deleted
func (r *GormProductRepository) SoftDelete(ctx context.Context, merchantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.ProductModel{}, merchantID, id)
}

// GormGalleryRepository implements catalog.GalleryRepository using GORM
type GormGalleryRepository struct {
	db *gorm.DB
}

// NewGormGalleryRepository creates a new GormGalleryRepository
func NewGormGalleryRepository(db *gorm.DB) *GormGalleryRepository {
	return &GormGalleryRepository{db: db}
}

// ListByMerchant lists live gallery images ordered by position
func (r *GormGalleryRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]catalog.GalleryImage, error) {
	var rows []models.GalleryImageModel
	if err := r.db.WithContext(ctx).Scopes(tenant.MerchantScope(merchantID)).Order("position, created_at").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	images := make([]catalog.GalleryImage, len(rows))
	for i := range rows {
		images[i] = *rows[i].ToDomain()
	}
	return images, nil
}

// FindByID finds a live gallery image owned by the merchant
func (r *GormGalleryRepository) FindByID(ctx context.Context, merchantID, id uuid.UUID) (*catalog.GalleryImage, error) {
	var model models.GalleryImageModel
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND id = ?", merchantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Create inserts a gallery image
func (r *GormGalleryRepository) Create(ctx context.Context, image *catalog.GalleryImage) error {
	var model models.GalleryImageModel
	model.FromDomain(image)
	return translateError(r.db.WithContext(ctx).Create(&model).Error)
}

// SoftDelete marks a gallery image deleted
func (r *GormGalleryRepository) SoftDelete(ctx context.Context, merchantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.GalleryImageModel{}, merchantID, id)
}
