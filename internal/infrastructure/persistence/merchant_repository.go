package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMerchantRepository implements identity.MerchantRepository using GORM
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewGormMerchantRepository creates a new GormMerchantRepository
func NewGormMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// FindByID finds a merchant by its ID
func (r *GormMerchantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Merchant, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySlug finds a merchant by slug
func (r *GormMerchantRepository) FindBySlug(ctx context.Context, slug string) (*identity.Merchant, error) {
	return r.findOne(ctx, "slug = ?", strings.ToLower(slug))
}

// FindActiveByCustomDomain finds an active merchant whose custom domain equals domain exactly
func (r *GormMerchantRepository) FindActiveByCustomDomain(ctx context.Context, domain string) (*identity.Merchant, error) {
	return r.findOne(ctx, "custom_domain = ? AND active = ?", domain, true)
}

// FindByOwner finds the merchant operated by an identity
func (r *GormMerchantRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*identity.Merchant, error) {
	return r.findOne(ctx, "owner_id = ?", ownerID)
}

func (r *GormMerchantRepository) findOne(ctx context.Context, query string, args ...any) (*identity.Merchant, error) {
	var model models.MerchantModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsBySlug reports whether any merchant uses slug
func (r *GormMerchantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	return r.exists(ctx, "slug = ?", strings.ToLower(slug))
}

// ExistsByOwner reports whether an identity operates a merchant
func (r *GormMerchantRepository) ExistsByOwner(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	return r.exists(ctx, "owner_id = ?", ownerID)
}

func (r *GormMerchantRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.MerchantModel{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// ListDirectory lists active, directory-visible merchants
func (r *GormMerchantRepository) ListDirectory(ctx context.Context, filter shared.Filter) ([]identity.Merchant, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MerchantModel{}).
		Where("active = ? AND directory_visible = ?", true, true)
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(business_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orderBy := ValidateSortField(filter.OrderBy, MerchantSortFields, "business_name")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if filter.OrderDir == "" && orderBy == "business_name" {
		orderDir = "ASC"
	}

	var rows []models.MerchantModel
	if err := query.Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	merchants := make([]identity.Merchant, len(rows))
	for i := range rows {
		merchants[i] = *rows[i].ToDomain()
	}
	return merchants, total, nil
}

// ListIDs returns the ids of every merchant
func (r *GormMerchantRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.MerchantModel{}).Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// Create inserts a merchant
func (r *GormMerchantRepository) Create(ctx context.Context, merchant *identity.Merchant) error {
	model := models.MerchantModelFromDomain(merchant)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return r.translateWriteError(err)
	}
	return nil
}

// Save updates every column of an existing merchant
func (r *GormMerchantRepository) Save(ctx context.Context, merchant *identity.Merchant) error {
	model := models.MerchantModelFromDomain(merchant)
	result := r.db.WithContext(ctx).Model(model).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return r.translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormMerchantRepository) translateWriteError(err error) error {
	switch {
	case uniqueViolationOn(err, "slug"):
		return identity.ErrSlugTaken
	case uniqueViolationOn(err, "custom_domain"):
		return identity.ErrDomainTaken
	case uniqueViolationOn(err, "owner_id"):
		return shared.Conflict("identity already operates a merchant")
	default:
		return translateError(err)
	}
}
