package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserTypeRepository implements identity.UserTypeRepository using GORM.
// identity_id is the primary key, so an identity never has two tags.
type GormUserTypeRepository struct {
	db *gorm.DB
}

// NewGormUserTypeRepository creates a new GormUserTypeRepository
func NewGormUserTypeRepository(db *gorm.DB) *GormUserTypeRepository {
	return &GormUserTypeRepository{db: db}
}

// Find returns the identity's tag
func (r *GormUserTypeRepository) Find(ctx context.Context, identityID uuid.UUID) (*identity.UserTypeRecord, error) {
	var model models.UserTypeModel
	if err := r.db.WithContext(ctx).First(&model, "identity_id = ?", identityID).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Upsert creates or replaces the identity's tag
func (r *GormUserTypeRepository) Upsert(ctx context.Context, record *identity.UserTypeRecord) error {
	var model models.UserTypeModel
	model.FromDomain(record)
	return translateError(r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(&model).Error)
}

// CreateIfAbsent stores the tag only when the identity has none yet
func (r *GormUserTypeRepository) CreateIfAbsent(ctx context.Context, record *identity.UserTypeRecord) error {
	var model models.UserTypeModel
	model.FromDomain(record)
	return translateError(r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity_id"}},
		DoNothing: true,
	}).Create(&model).Error)
}
