package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slotbook/backend/internal/domain/shared"
)

// Product is a retail item a merchant sells alongside bookings
type Product struct {
	shared.MerchantAggregateRoot
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	DeletedAt   *time.Time
}

// NewProduct creates a product for merchantID
func NewProduct(merchantID uuid.UUID, name, description string, price decimal.Decimal, stock int) (*Product, error) {
	name = strings.TrimSpace(name)
	if merchantID == uuid.Nil {
		return nil, shared.InvalidInput("merchant id is required")
	}
	if name == "" {
		return nil, shared.InvalidInput("product name is required")
	}
	if len(name) > 200 {
		return nil, shared.InvalidInput("product name cannot exceed 200 characters")
	}
	if price.IsNegative() {
		return nil, shared.InvalidInput("price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.InvalidInput("stock cannot be negative")
	}
	return &Product{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		Name:                  name,
		Description:           strings.TrimSpace(description),
		Price:                 price,
		Stock:                 stock,
	}, nil
}
