package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
)

// Repository persists bookings
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	Create(ctx context.Context, booking *Booking) error

	// LinkCustomer sets customer_id only while it is still null and reports
	// whether a row was changed. Concurrent callers cannot both win.
	LinkCustomer(ctx context.Context, bookingID, customerID uuid.UUID) (bool, error)

	// ListForCustomer returns bookings linked to customerID plus unlinked
	// bookings whose contact email or phone digits match.
	ListForCustomer(ctx context.Context, customerID uuid.UUID, email, phoneDigits string) ([]Booking, error)

	ListByMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) ([]Booking, int64, error)

	UpdateStatus(ctx context.Context, booking *Booking) error
}
