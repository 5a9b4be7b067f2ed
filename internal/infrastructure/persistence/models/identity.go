package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/identity"
	"gorm.io/datatypes"
)

// MerchantModel is the persistence model for the Merchant aggregate.
type MerchantModel struct {
	AggregateModel
	OwnerID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Slug             string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	BusinessName     string    `gorm:"type:varchar(200);not null"`
	CustomDomain     *string   `gorm:"type:varchar(253);uniqueIndex"`
	Email            string    `gorm:"type:varchar(320)"`
	Phone            string    `gorm:"type:varchar(50)"`
	Active           bool      `gorm:"not null;default:true;index"`
	DirectoryVisible bool      `gorm:"not null;default:true"`
	Theme            datatypes.JSONMap
	Settings         datatypes.JSONMap
}

// TableName returns the table name for GORM
func (MerchantModel) TableName() string {
	return "merchants"
}

// ToDomain converts the persistence model to a domain Merchant.
func (m *MerchantModel) ToDomain() *identity.Merchant {
	merchant := &identity.Merchant{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OwnerID:           m.OwnerID,
		Slug:              m.Slug,
		BusinessName:      m.BusinessName,
		Email:             m.Email,
		Phone:             m.Phone,
		Active:            m.Active,
		DirectoryVisible:  m.DirectoryVisible,
		Theme:             map[string]any(m.Theme),
		Settings:          map[string]any(m.Settings),
	}
	if m.CustomDomain != nil {
		merchant.CustomDomain = *m.CustomDomain
	}
	if merchant.Theme == nil {
		merchant.Theme = map[string]any{}
	}
	if merchant.Settings == nil {
		merchant.Settings = map[string]any{}
	}
	return merchant
}

// FromDomain populates the persistence model from a domain Merchant.
// An empty custom domain is stored as NULL so the unique index ignores it.
func (m *MerchantModel) FromDomain(merchant *identity.Merchant) {
	m.FromDomainAggregateRoot(merchant.BaseAggregateRoot)
	m.OwnerID = merchant.OwnerID
	m.Slug = merchant.Slug
	m.BusinessName = merchant.BusinessName
	m.CustomDomain = nil
	if merchant.CustomDomain != "" {
		domain := merchant.CustomDomain
		m.CustomDomain = &domain
	}
	m.Email = merchant.Email
	m.Phone = merchant.Phone
	m.Active = merchant.Active
	m.DirectoryVisible = merchant.DirectoryVisible
	m.Theme = datatypes.JSONMap(merchant.Theme)
	m.Settings = datatypes.JSONMap(merchant.Settings)
}

// MerchantModelFromDomain creates a persistence model from a domain Merchant.
func MerchantModelFromDomain(merchant *identity.Merchant) *MerchantModel {
	m := &MerchantModel{}
	m.FromDomain(merchant)
	return m
}

// CustomerAccountModel is the persistence model for CustomerAccount.
// PhoneDigits holds the normalized phone used for contact matching.
type CustomerAccountModel struct {
	AggregateModel
	Email       string `gorm:"type:varchar(320);index"`
	Phone       string `gorm:"type:varchar(50)"`
	PhoneDigits string `gorm:"type:varchar(50);index"`
	FullName    string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (CustomerAccountModel) TableName() string {
	return "customer_accounts"
}

// ToDomain converts the persistence model to a domain CustomerAccount.
func (m *CustomerAccountModel) ToDomain() *identity.CustomerAccount {
	return &identity.CustomerAccount{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		Phone:             m.Phone,
		FullName:          m.FullName,
	}
}

// FromDomain populates the persistence model from a domain CustomerAccount.
func (m *CustomerAccountModel) FromDomain(a *identity.CustomerAccount) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Email = identity.NormalizeEmail(a.Email)
	m.Phone = a.Phone
	m.PhoneDigits = identity.NormalizePhone(a.Phone)
	m.FullName = a.FullName
}

// UserTypeModel stores the single role tag of an identity.
type UserTypeModel struct {
	IdentityID uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Role       identity.Role `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time     `gorm:"not null"`
	UpdatedAt  time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserTypeModel) TableName() string {
	return "user_types"
}

// ToDomain converts the persistence model to a domain UserTypeRecord.
func (m *UserTypeModel) ToDomain() *identity.UserTypeRecord {
	return &identity.UserTypeRecord{
		IdentityID: m.IdentityID,
		Role:       m.Role,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain UserTypeRecord.
func (m *UserTypeModel) FromDomain(r *identity.UserTypeRecord) {
	m.IdentityID = r.IdentityID
	m.Role = r.Role
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
}

// FavoriteModel stores a customer's saved merchant.
type FavoriteModel struct {
	CustomerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FavoriteModel) TableName() string {
	return "favorites"
}

// ToDomain converts the persistence model to a domain Favorite.
func (m *FavoriteModel) ToDomain() identity.Favorite {
	return identity.Favorite{
		CustomerID: m.CustomerID,
		MerchantID: m.MerchantID,
		CreatedAt:  m.CreatedAt,
	}
}
