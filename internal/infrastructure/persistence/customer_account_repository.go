package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerAccountRepository implements identity.CustomerAccountRepository using GORM
type GormCustomerAccountRepository struct {
	db *gorm.DB
}

// NewGormCustomerAccountRepository creates a new GormCustomerAccountRepository
func NewGormCustomerAccountRepository(db *gorm.DB) *GormCustomerAccountRepository {
	return &GormCustomerAccountRepository{db: db}
}

// FindByID finds a customer account by identity id
func (r *GormCustomerAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.CustomerAccount, error) {
	var model models.CustomerAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Exists reports whether the identity has a customer account
func (r *GormCustomerAccountRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerAccountModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Create inserts a customer account
func (r *GormCustomerAccountRepository) Create(ctx context.Context, account *identity.CustomerAccount) error {
	var model models.CustomerAccountModel
	model.FromDomain(account)
	return translateError(r.db.WithContext(ctx).Create(&model).Error)
}

// Save updates a customer account
func (r *GormCustomerAccountRepository) Save(ctx context.Context, account *identity.CustomerAccount) error {
	var model models.CustomerAccountModel
	model.FromDomain(account)
	result := r.db.WithContext(ctx).Model(&model).Select("*").Omit("id", "created_at").Updates(&model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
