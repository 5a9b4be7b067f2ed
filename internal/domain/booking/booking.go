// Package booking models bookings made on a merchant's public page, including
// anonymous bookings that are linked to a customer identity later.
package booking

import (
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
)

// Status is the business status of a booking
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// CodeAlreadyLinked is returned when a booking is linked to another customer
const CodeAlreadyLinked = "BOOKING_ALREADY_LINKED"

// ErrLinkedToAnotherCustomer is returned when linking would overwrite an existing customer
var ErrLinkedToAnotherCustomer = shared.NewDomainError(CodeAlreadyLinked, "booking is already linked to another customer")

// Contact is the contact snapshot captured when the booking was made
type Contact struct {
	Name  string
	Email string
	Phone string
}

// LineItem is one entry of the booking cart
type LineItem struct {
	ItemID    *uuid.UUID      `json:"item_id,omitempty"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity times unit price
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Booking is a booking for one merchant. CustomerID is nil until the booking
// is linked, and once set it never changes to a different customer.
type Booking struct {
	shared.MerchantAggregateRoot
	CustomerID      *uuid.UUID
	Contact         Contact
	Status          Status
	ScheduledAt     *time.Time
	DurationMinutes int
	Notes           string
	LineItems       []LineItem
	Total           decimal.Decimal
}

// NewBookingParams holds the visitor-supplied fields of a booking
type NewBookingParams struct {
	Name            string
	Email           string
	Phone           string
	ScheduledAt     *time.Time
	DurationMinutes int
	Notes           string
	LineItems       []LineItem
	Total           *decimal.Decimal
}

// NewAnonymousBooking creates an unlinked booking. Name and phone are required
// so the merchant can reach the visitor; email is optional. When no total is
// given it is computed from the line items.
func NewAnonymousBooking(merchantID uuid.UUID, p NewBookingParams) (*Booking, error) {
	if merchantID == uuid.Nil {
		return nil, shared.InvalidInput("merchant id is required")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, shared.InvalidInput("customer name is required")
	}
	if len(name) > 200 {
		return nil, shared.InvalidInput("customer name cannot exceed 200 characters")
	}
	phone := strings.TrimSpace(p.Phone)
	if identity.NormalizePhone(phone) == "" {
		return nil, shared.InvalidInput("customer phone is required")
	}
	email := identity.NormalizeEmail(p.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, shared.InvalidInput("customer email is not valid")
		}
	}
	if p.DurationMinutes < 0 {
		return nil, shared.InvalidInput("duration cannot be negative")
	}

	items := slices.Clone(p.LineItems)
	total := decimal.Zero
	for i, li := range items {
		if strings.TrimSpace(li.Name) == "" {
			return nil, shared.InvalidInput("line item name is required")
		}
		if li.Quantity <= 0 {
			return nil, shared.InvalidInput("line item quantity must be positive")
		}
		if li.UnitPrice.IsNegative() {
			return nil, shared.InvalidInput("line item price cannot be negative")
		}
		if li.Kind == "" {
			items[i].Kind = "service"
		}
		total = total.Add(li.Subtotal())
	}
	if p.Total != nil {
		if p.Total.IsNegative() {
			return nil, shared.InvalidInput("total cannot be negative")
		}
		total = *p.Total
	}

	return &Booking{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		Contact: Contact{
			Name:  name,
			Email: email,
			Phone: phone,
		},
		Status:          StatusPending,
		ScheduledAt:     p.ScheduledAt,
		DurationMinutes: p.DurationMinutes,
		Notes:           strings.TrimSpace(p.Notes),
		LineItems:       items,
		Total:           total,
	}, nil
}

// IsLinked reports whether the booking belongs to a customer
func (b *Booking) IsLinked() bool {
	return b.CustomerID != nil
}

// LinkTo assigns the booking to customerID. It returns false with no error
// when the booking is already linked to that same customer.
func (b *Booking) LinkTo(customerID uuid.UUID) (bool, error) {
	if customerID == uuid.Nil {
		return false, shared.InvalidInput("customer id is required")
	}
	if b.CustomerID != nil {
		if *b.CustomerID == customerID {
			return false, nil
		}
		return false, ErrLinkedToAnotherCustomer
	}
	id := customerID
	b.CustomerID = &id
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return true, nil
}

var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// TransitionTo changes the business status
func (b *Booking) TransitionTo(next Status) error {
	if !next.IsValid() {
		return shared.InvalidInput("unknown booking status: " + string(next))
	}
	for _, allowed := range allowedTransitions[b.Status] {
		if allowed == next {
			b.Status = next
			b.UpdatedAt = time.Now()
			b.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError(shared.CodeInvalidState,
		"cannot move booking from "+string(b.Status)+" to "+string(next))
}

// MatchesContact reports whether the contact snapshot shares the email
// (case-insensitive) or the phone digits. It is a display heuristic, not proof of identity.
func (b *Booking) MatchesContact(email, phone string) bool {
	if e := identity.NormalizeEmail(email); e != "" && e == b.Contact.Email {
		return true
	}
	digits := identity.NormalizePhone(phone)
	return digits != "" && digits == identity.NormalizePhone(b.Contact.Phone)
}
