package billing

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
)

// ResourceKind is a quota-gated resource
type ResourceKind string

const (
	ResourceServices      ResourceKind = "services"
	ResourceProducts      ResourceKind = "products"
	ResourceGalleryImages ResourceKind = "gallery_images"
)

// AllResourceKinds returns every tracked resource kind
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{ResourceServices, ResourceProducts, ResourceGalleryImages}
}

// IsValid reports whether k is a tracked resource kind
func (k ResourceKind) IsValid() bool {
	switch k {
	case ResourceServices, ResourceProducts, ResourceGalleryImages:
		return true
	default:
		return false
	}
}

// QuotaInfo is the usage of one resource kind against its limit
type QuotaInfo struct {
	Used       int64 `json:"used"`
	Limit      int64 `json:"limit"`
	Unlimited  bool  `json:"unlimited"`
	Percentage int   `json:"percentage"`
}

// NewQuotaInfo builds a QuotaInfo. Percentage is rounded down and capped at 100.
func NewQuotaInfo(used, limit int64) QuotaInfo {
	info := QuotaInfo{Used: used, Limit: limit}
	if limit == Unlimited {
		info.Unlimited = true
		return info
	}
	if limit <= 0 {
		info.Percentage = 100
		return info
	}
	pct := used * 100 / limit
	if pct > 100 {
		pct = 100
	}
	info.Percentage = int(pct)
	return info
}

// Allows reports whether one more item may be created
func (q QuotaInfo) Allows() bool {
	return q.Unlimited || q.Used < q.Limit
}

// ExceededError is the typed "limit reached" condition. It is distinct from
// validation errors so clients can offer an upgrade instead of a failure.
type ExceededError struct {
	MerchantID uuid.UUID
	Kind       ResourceKind
	Used       int64
	Limit      int64
	Tier       TierKey
}

// Error implements error
func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s limit reached (%d of %d on the %s plan)", e.Kind, e.Used, e.Limit, e.Tier)
}

// Is lets errors.Is(err, shared.ErrQuotaExceeded) match
func (e *ExceededError) Is(target error) bool {
	return target == shared.ErrQuotaExceeded
}

// HTTPStatusCode returns the status used for quota denials
func (e *ExceededError) HTTPStatusCode() int {
	return http.StatusTooManyRequests
}

// ToDomainError converts the error to the shared envelope
func (e *ExceededError) ToDomainError() *shared.DomainError {
	return shared.WrapDomainError(shared.CodeQuotaExceeded, e.Error(), e)
}
