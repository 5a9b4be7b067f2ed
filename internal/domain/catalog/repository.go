package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ServiceRepository persists services
type ServiceRepository interface {
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Service, error)
	Create(ctx context.Context, service *Service) error
	// SoftDelete returns shared.ErrNotFound when the service is absent or owned by another merchant
	SoftDelete(ctx context.Context, merchantID, id uuid.UUID) error
}

// ProductRepository persists products
type ProductRepository interface {
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Product, error)
	Create(ctx context.Context, product *Product) error
	SoftDelete(ctx context.Context, merchantID, id uuid.UUID) error
}

// GalleryRepository persists gallery images
type GalleryRepository interface {
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]GalleryImage, error)
	FindByID(ctx context.Context, merchantID, id uuid.UUID) (*GalleryImage, error)
	Create(ctx context.Context, image *GalleryImage) error
	SoftDelete(ctx context.Context, merchantID, id uuid.UUID) error
}
