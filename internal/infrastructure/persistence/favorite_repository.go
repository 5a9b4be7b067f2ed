package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFavoriteRepository implements identity.FavoriteRepository using GORM
type GormFavoriteRepository struct {
	db *gorm.DB
}

// NewGormFavoriteRepository creates a new GormFavoriteRepository
func NewGormFavoriteRepository(db *gorm.DB) *GormFavoriteRepository {
	return &GormFavoriteRepository{db: db}
}

// List returns the customer's favorites, newest first
func (r *GormFavoriteRepository) List(ctx context.Context, customerID uuid.UUID) ([]identity.Favorite, error) {
	var rows []models.FavoriteModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	favorites := make([]identity.Favorite, len(rows))
	for i := range rows {
		favorites[i] = rows[i].ToDomain()
	}
	return favorites, nil
}

// Add saves a favorite. Adding an existing favorite is a no-op.
func (r *GormFavoriteRepository) Add(ctx context.Context, favorite identity.Favorite) error {
	model := models.FavoriteModel{
		CustomerID: favorite.CustomerID,
		MerchantID: favorite.MerchantID,
		CreatedAt:  favorite.CreatedAt,
	}
	return translateError(r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error)
}

// Remove deletes a favorite. Removing a missing favorite is a no-op.
func (r *GormFavoriteRepository) Remove(ctx context.Context, customerID, merchantID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).
		Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).
		Delete(&models.FavoriteModel{}).Error)
}
