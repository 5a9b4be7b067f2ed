package identity

import (
	"time"

	"github.com/google/uuid"
)

// Favorite records that a customer saved a merchant
type Favorite struct {
	CustomerID uuid.UUID
	MerchantID uuid.UUID
	CreatedAt  time.Time
}

// NewFavorite creates a favorite
func NewFavorite(customerID, merchantID uuid.UUID) Favorite {
	return Favorite{
		CustomerID: customerID,
		MerchantID: merchantID,
		CreatedAt:  time.Now(),
	}
}
