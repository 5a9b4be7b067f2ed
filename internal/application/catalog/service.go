// Package catalog manages the quota-gated resources a merchant publishes:
// services, products and gallery images.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/domain/billing"
	"github.com/slotbook/backend/internal/domain/catalog"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/telemetry"
)

// QuotaChecker gates creation of quota-counted resources
type QuotaChecker interface {
	CheckCreate(ctx context.Context, kind billing.ResourceKind, merchantID uuid.UUID) error
}

// CreateServiceInput describes a new bookable service
type CreateServiceInput struct {
	Name            string
	Description     string
	DurationMinutes int
	Price           decimal.Decimal
}

// CreateProductInput describes a new product
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

// CreateGalleryImageInput describes an image the merchant is about to upload
type CreateGalleryImageInput struct {
	ContentType string
	Caption     string
	Position    int
}

// GalleryUpload is a created gallery row plus where the browser uploads its bytes
type GalleryUpload struct {
	Image     *catalog.GalleryImage
	UploadURL string
	ExpiresAt time.Time
	PublicURL string
}

// GalleryItem is a gallery row with its public URL
type GalleryItem struct {
	catalog.GalleryImage
	URL string
}

// CatalogService creates and removes merchant catalog entries. Every create
// is checked against the merchant's plan first.
type CatalogService struct {
	services catalog.ServiceRepository
	products catalog.ProductRepository
	gallery  catalog.GalleryRepository
	quota    QuotaChecker
	storage  ObjectStorage
	logger   *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	services catalog.ServiceRepository,
	products catalog.ProductRepository,
	gallery catalog.GalleryRepository,
	quota QuotaChecker,
	storage ObjectStorage,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		services: services,
		products: products,
		gallery:  gallery,
		quota:    quota,
		storage:  storage,
		logger:   logger,
	}
}

// ListServices returns the merchant's live services
func (s *CatalogService) ListServices(ctx context.Context, merchantID uuid.UUID) ([]catalog.Service, error) {
	return s.services.ListByMerchant(ctx, merchantID)
}

// CreateService adds a service when the plan allows one more
func (s *CatalogService) CreateService(ctx context.Context, merchantID uuid.UUID, input CreateServiceInput) (*catalog.Service, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_service",
		telemetry.SpanAttrMerchantID, merchantID.String())
	defer span.End()

	service, err := catalog.NewService(merchantID, input.Name, input.Description, input.DurationMinutes, input.Price)
	if err != nil {
		return nil, err
	}
	if err := s.quota.CheckCreate(ctx, billing.ResourceServices, merchantID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.services.Create(ctx, service); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Service created", zap.String("merchant_id", merchantID.String()), zap.String("service_id", service.ID.String()))
	return service, nil
}

// DeleteService soft-deletes a service, freeing its quota slot
func (s *CatalogService) DeleteService(ctx context.Context, merchantID, id uuid.UUID) error {
	return s.services.SoftDelete(ctx, merchantID, id)
}

// ListProducts returns the merchant's live products
func (s *CatalogService) ListProducts(ctx context.Context, merchantID uuid.UUID) ([]catalog.Product, error) {
	return s.products.ListByMerchant(ctx, merchantID)
}

// CreateProduct adds a product when the plan allows one more
func (s *CatalogService) CreateProduct(ctx context.Context, merchantID uuid.UUID, input CreateProductInput) (*catalog.Product, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_product",
		telemetry.SpanAttrMerchantID, merchantID.String())
	defer span.End()

	product, err := catalog.NewProduct(merchantID, input.Name, input.Description, input.Price, input.Stock)
	if err != nil {
		return nil, err
	}
	if err := s.quota.CheckCreate(ctx, billing.ResourceProducts, merchantID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Product created", zap.String("merchant_id", merchantID.String()), zap.String("product_id", product.ID.String()))
	return product, nil
}

// DeleteProduct soft-deletes a product
func (s *CatalogService) DeleteProduct(ctx context.Context, merchantID, id uuid.UUID) error {
	return s.products.SoftDelete(ctx, merchantID, id)
}

// ListGallery returns the merchant's live gallery images with their URLs
func (s *CatalogService) ListGallery(ctx context.Context, merchantID uuid.UUID) ([]GalleryItem, error) {
	images, err := s.gallery.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	items := make([]GalleryItem, len(images))
	for i := range images {
		items[i] = GalleryItem{GalleryImage: images[i], URL: s.storage.PublicURL(images[i].ObjectKey)}
	}
	return items, nil
}

// CreateGalleryImage records a gallery image and returns a presigned upload
// URL for its bytes. The row is removed again when presigning fails.
func (s *CatalogService) CreateGalleryImage(ctx context.Context, merchantID uuid.UUID, input CreateGalleryImageInput) (*GalleryUpload, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_gallery_image",
		telemetry.SpanAttrMerchantID, merchantID.String())
	defer span.End()

	image, err := catalog.NewGalleryImage(merchantID, input.ContentType, input.Caption, input.Position)
	if err != nil {
		return nil, err
	}
	if err := s.quota.CheckCreate(ctx, billing.ResourceGalleryImages, merchantID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.gallery.Create(ctx, image); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	uploadURL, expiresAt, err := s.storage.PresignUpload(ctx, image.ObjectKey, image.ContentType)
	if err != nil {
		telemetry.RecordError(span, err)
		if delErr := s.gallery.SoftDelete(ctx, merchantID, image.ID); delErr != nil {
			s.logger.Warn("Failed to remove gallery row after presign failure",
				zap.String("image_id", image.ID.String()), zap.Error(delErr))
		}
		return nil, shared.Upstream(err)
	}

	return &GalleryUpload{
		Image:     image,
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
		PublicURL: s.storage.PublicURL(image.ObjectKey),
	}, nil
}

// DeleteGalleryImage soft-deletes the row and removes the stored object.
// A failed object delete is logged; the row stays deleted.
func (s *CatalogService) DeleteGalleryImage(ctx context.Context, merchantID, id uuid.UUID) error {
	image, err := s.gallery.FindByID(ctx, merchantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("gallery image")
		}
		return err
	}
	if err := s.gallery.SoftDelete(ctx, merchantID, id); err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, image.ObjectKey); err != nil {
		s.logger.Warn("Failed to delete gallery object",
			zap.String("merchant_id", merchantID.String()),
			zap.String("object_key", image.ObjectKey),
			zap.Error(err),
		)
	}
	return nil
}
