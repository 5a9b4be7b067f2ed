// Package tenant scopes GORM statements on merchant-owned tables to the
// merchant carried by the request context.
//
// The application passes merchant ids explicitly; this package is a second
// line of defence. When the context names a merchant, every query, update and
// delete on a registered table gets "merchant_id = ?" added unless the
// statement already filters on merchant_id. Contexts marked with
// shared.WithElevatedAccess skip the filter.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidMerchantID is returned when the context carries a malformed merchant id
var ErrInvalidMerchantID = errors.New("invalid merchant_id in context")

// MerchantScope restricts a query to one merchant. The callback sees the
// explicit condition and adds nothing further.
func MerchantScope(merchantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("merchant_id = ?", merchantID)
	}
}
