package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slotbook/backend/internal/domain/booking"
	"github.com/slotbook/backend/internal/domain/identity"
	"gorm.io/datatypes"
)

// BookingModel is the persistence model for the Booking aggregate.
// ContactPhoneDigits is the normalized phone used to match unlinked bookings
// to a customer account.
type BookingModel struct {
	MerchantAggregateModel
	CustomerID         *uuid.UUID     `gorm:"type:uuid;index"`
	ContactName        string         `gorm:"type:varchar(200);not null"`
	ContactEmail       string         `gorm:"type:varchar(320);index"`
	ContactPhone       string         `gorm:"type:varchar(50);not null"`
	ContactPhoneDigits string         `gorm:"type:varchar(50);index"`
	Status             booking.Status `gorm:"type:varchar(20);not null;default:'pending'"`
	ScheduledAt        *time.Time     `gorm:"index"`
	DurationMinutes    int            `gorm:"not null;default:0"`
	Notes              string         `gorm:"type:text"`
	LineItems          datatypes.JSONSlice[booking.LineItem]
	Total              decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (BookingModel) TableName() string {
	return "bookings"
}

// ToDomain converts the persistence model to a domain Booking.
func (m *BookingModel) ToDomain() *booking.Booking {
	items := []booking.LineItem(m.LineItems)
	if items == nil {
		items = []booking.LineItem{}
	}
	return &booking.Booking{
		MerchantAggregateRoot: m.ToMerchantAggregateRoot(),
		CustomerID:            m.CustomerID,
		Contact: booking.Contact{
			Name:  m.ContactName,
			Email: m.ContactEmail,
			Phone: m.ContactPhone,
		},
		Status:          m.Status,
		ScheduledAt:     m.ScheduledAt,
		DurationMinutes: m.DurationMinutes,
		Notes:           m.Notes,
		LineItems:       items,
		Total:           m.Total,
	}
}

// FromDomain populates the persistence model from a domain Booking.
func (m *BookingModel) FromDomain(b *booking.Booking) {
	m.FromDomainMerchantAggregateRoot(b.MerchantAggregateRoot)
	m.CustomerID = b.CustomerID
	m.ContactName = b.Contact.Name
	m.ContactEmail = identity.NormalizeEmail(b.Contact.Email)
	m.ContactPhone = b.Contact.Phone
	m.ContactPhoneDigits = identity.NormalizePhone(b.Contact.Phone)
	m.Status = b.Status
	m.ScheduledAt = b.ScheduledAt
	m.DurationMinutes = b.DurationMinutes
	m.Notes = b.Notes
	m.LineItems = datatypes.JSONSlice[booking.LineItem](b.LineItems)
	m.Total = b.Total
}
