package billing

import (
	"time"

	"github.com/google/uuid"
)

// UsageSnapshot is a row of the subscription_usage cache. It exists for
// dashboards and reporting. Allow/deny decisions never read it because it can
// drift from the authoritative tables.
type UsageSnapshot struct {
	MerchantID    uuid.UUID
	Services      int64
	Products      int64
	GalleryImages int64
	ComputedAt    time.Time
}

// Count returns the cached count for kind
func (u UsageSnapshot) Count(kind ResourceKind) int64 {
	switch kind {
	case ResourceServices:
		return u.Services
	case ResourceProducts:
		return u.Products
	case ResourceGalleryImages:
		return u.GalleryImages
	default:
		return 0
	}
}

// SameCounts reports whether two snapshots hold identical counts
func (u UsageSnapshot) SameCounts(other UsageSnapshot) bool {
	return u.Services == other.Services &&
		u.Products == other.Products &&
		u.GalleryImages == other.GalleryImages
}
