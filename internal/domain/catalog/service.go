// Package catalog holds the merchant-owned resources that count against plan quotas.
package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slotbook/backend/internal/domain/shared"
)

// Service is a bookable service offered by a merchant
type Service struct {
	shared.MerchantAggregateRoot
	Name            string
	Description     string
	DurationMinutes int
	Price           decimal.Decimal
	DeletedAt       *time.Time
}

// NewService creates a service for merchantID
func NewService(merchantID uuid.UUID, name, description string, durationMinutes int, price decimal.Decimal) (*Service, error) {
	name = strings.TrimSpace(name)
	if merchantID == uuid.Nil {
		return nil, shared.InvalidInput("merchant id is required")
	}
	if name == "" {
		return nil, shared.InvalidInput("service name is required")
	}
	if len(name) > 200 {
		return nil, shared.InvalidInput("service name cannot exceed 200 characters")
	}
	if durationMinutes <= 0 || durationMinutes > 24*60 {
		return nil, shared.InvalidInput("duration must be between 1 and 1440 minutes")
	}
	if price.IsNegative() {
		return nil, shared.InvalidInput("price cannot be negative")
	}
	return &Service{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		Name:                  name,
		Description:           strings.TrimSpace(description),
		DurationMinutes:       durationMinutes,
		Price:                 price,
	}, nil
}
