package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotbook/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// ServiceModel is the persistence model for catalog services.
type ServiceModel struct {
	MerchantAggregateModel
	Name            string          `gorm:"type:varchar(200);not null"`
	Description     string          `gorm:"type:text"`
	DurationMinutes int             `gorm:"not null"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DeletedAt       gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (ServiceModel) TableName() string {
	return "services"
}

// ToDomain converts the persistence model to a domain Service.
func (m *ServiceModel) ToDomain() *catalog.Service {
	return &catalog.Service{
		MerchantAggregateRoot: m.ToMerchantAggregateRoot(),
		Name:                  m.Name,
		Description:           m.Description,
		DurationMinutes:       m.DurationMinutes,
		Price:                 m.Price,
		DeletedAt:             deletedAtPtr(m.DeletedAt),
	}
}

// FromDomain populates the persistence model from a domain Service.
func (m *ServiceModel) FromDomain(s *catalog.Service) {
	m.FromDomainMerchantAggregateRoot(s.MerchantAggregateRoot)
	m.Name = s.Name
	m.Description = s.Description
	m.DurationMinutes = s.DurationMinutes
	m.Price = s.Price
	m.DeletedAt = toDeletedAt(s.DeletedAt)
}

// ProductModel is the persistence model for catalog products.
type ProductModel struct {
	MerchantAggregateModel
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Stock       int             `gorm:"not null;default:0"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		MerchantAggregateRoot: m.ToMerchantAggregateRoot(),
		Name:                  m.Name,
		Description:           m.Description,
		Price:                 m.Price,
		Stock:                 m.Stock,
		DeletedAt:             deletedAtPtr(m.DeletedAt),
	}
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainMerchantAggregateRoot(p.MerchantAggregateRoot)
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.Stock = p.Stock
	m.DeletedAt = toDeletedAt(p.DeletedAt)
}

// GalleryImageModel is the persistence model for gallery images.
type GalleryImageModel struct {
	MerchantAggregateModel
	ObjectKey   string         `gorm:"type:varchar(500);not null;uniqueIndex"`
	ContentType string         `gorm:"type:varchar(50);not null"`
	Caption     string         `gorm:"type:varchar(500)"`
	Position    int            `gorm:"not null;default:0"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (GalleryImageModel) TableName() string {
	return "gallery"
}

// ToDomain converts the persistence model to a domain GalleryImage.
func (m *GalleryImageModel) ToDomain() *catalog.GalleryImage {
	return &catalog.GalleryImage{
		MerchantAggregateRoot: m.ToMerchantAggregateRoot(),
		ObjectKey:             m.ObjectKey,
		ContentType:           m.ContentType,
		Caption:               m.Caption,
		Position:              m.Position,
		DeletedAt:             deletedAtPtr(m.DeletedAt),
	}
}

// FromDomain populates the persistence model from a domain GalleryImage.
func (m *GalleryImageModel) FromDomain(g *catalog.GalleryImage) {
	m.FromDomainMerchantAggregateRoot(g.MerchantAggregateRoot)
	m.ObjectKey = g.ObjectKey
	m.ContentType = g.ContentType
	m.Caption = g.Caption
	m.Position = g.Position
	m.DeletedAt = toDeletedAt(g.DeletedAt)
}

func deletedAtPtr(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func toDeletedAt(t *time.Time) gorm.DeletedAt {
	if t == nil {
		return gorm.DeletedAt{}
	}
	return gorm.DeletedAt{Time: *t, Valid: true}
}
