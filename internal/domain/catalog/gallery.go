package catalog

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// GalleryImage is an image on the merchant's public page.
// The bytes live in object storage under ObjectKey.
type GalleryImage struct {
	shared.MerchantAggregateRoot
	ObjectKey   string
	ContentType string
	Caption     string
	Position    int
	DeletedAt   *time.Time
}

// NewGalleryImage creates a gallery entry and assigns its storage key
func NewGalleryImage(merchantID uuid.UUID, contentType, caption string, position int) (*GalleryImage, error) {
	if merchantID == uuid.Nil {
		return nil, shared.InvalidInput("merchant id is required")
	}
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, shared.InvalidInput("unsupported image type: " + contentType)
	}
	if len(caption) > 500 {
		return nil, shared.InvalidInput("caption cannot exceed 500 characters")
	}
	img := &GalleryImage{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		ContentType:           strings.ToLower(contentType),
		Caption:               strings.TrimSpace(caption),
		Position:              position,
	}
	img.ObjectKey = path.Join("merchants", merchantID.String(), "gallery", img.ID.String()+ext)
	return img, nil
}
