package catalog

import (
	"context"
	"time"
)

// ObjectStorage holds the bytes of gallery images.
// Implemented by the infrastructure layer (S3, MinIO, R2, or a stub).
type ObjectStorage interface {
	// PresignUpload returns a URL the browser can PUT the object to directly
	PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error)

	// DeleteObject removes an object. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, key string) error

	// PublicURL returns the URL visitors load the object from
	PublicURL(key string) string
}
