// Package booking implements anonymous booking creation and the one-time link
// of a booking to a customer identity.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/domain/booking"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/telemetry"
)

// HandleSigner issues and verifies pending-booking handles
type HandleSigner interface {
	Issue(bookingID uuid.UUID) (string, time.Time, error)
	Verify(handle string) (uuid.UUID, error)
}

// Config controls linking behaviour
type Config struct {
	// AllowRawIDLink accepts a bare booking id without a handle. Only for
	// clients that predate handles; anyone who learns an id could claim it.
	AllowRawIDLink bool
}

// CreateBookingInput is a visitor's booking request
type CreateBookingInput struct {
	MerchantID      uuid.UUID
	Name            string
	Email           string
	Phone           string
	ScheduledAt     *time.Time
	DurationMinutes int
	Notes           string
	LineItems       []booking.LineItem
	Total           *decimal.Decimal
}

// CreateBookingResult carries the new booking and the handle the visitor
// presents later to claim it
type CreateBookingResult struct {
	Booking         *booking.Booking
	Handle          string
	HandleExpiresAt time.Time
}

// LinkInput identifies the booking to link either by handle or by raw id
type LinkInput struct {
	BookingID  uuid.UUID
	Handle     string
	CustomerID uuid.UUID
}

// LinkResult is the outcome of a successful link
type LinkResult struct {
	Booking       *booking.Booking
	AlreadyLinked bool
}

// Service handles the anonymous booking lifecycle
type Service struct {
	bookings  booking.Repository
	merchants identity.MerchantRepository
	customers identity.CustomerAccountRepository
	handles   HandleSigner
	cfg       Config
	logger    *zap.Logger
	metrics   *telemetry.BusinessMetrics
}

// NewService creates a new booking Service
func NewService(
	bookings booking.Repository,
	merchants identity.MerchantRepository,
	customers identity.CustomerAccountRepository,
	handles HandleSigner,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		bookings:  bookings,
		merchants: merchants,
		customers: customers,
		handles:   handles,
		cfg:       cfg,
		logger:    logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *Service) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// Create records a booking made without an account. The visitor has no
// tenant membership, so the write runs elevated.
func (s *Service) Create(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "booking", "create",
		telemetry.SpanAttrMerchantID, input.MerchantID.String())
	defer span.End()

	if input.MerchantID == uuid.Nil {
		return nil, shared.InvalidInput("merchant id is required")
	}
	ctx = shared.WithElevatedAccess(ctx)

	merchant, err := s.merchants.FindByID(ctx, input.MerchantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("merchant")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !merchant.Active {
		return nil, shared.NotFound("merchant")
	}

	b, err := booking.NewAnonymousBooking(merchant.ID, booking.NewBookingParams{
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: input.DurationMinutes,
		Notes:           input.Notes,
		LineItems:       input.LineItems,
		Total:           input.Total,
	})
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	handle, expiresAt, err := s.handles.Issue(b.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrBookingID, b.ID.String())
	s.logger.Info("Booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("merchant_id", merchant.ID.String()),
		zap.String("total", b.Total.StringFixed(2)),
	)
	if s.metrics != nil {
		s.metrics.RecordBookingCreated(ctx, merchant.ID, b.Total)
	}

	return &CreateBookingResult{Booking: b, Handle: handle, HandleExpiresAt: expiresAt}, nil
}

// Link assigns a booking to a customer at most once. Relinking to the same
// customer succeeds without a write; a booking owned by someone else is
// never overwritten.
func (s *Service) Link(ctx context.Context, input LinkInput) (*LinkResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "booking", "link",
		telemetry.SpanAttrCustomerID, input.CustomerID.String())
	defer span.End()

	viaHandle := input.Handle != ""
	result, outcome, err := s.link(ctx, input)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	if s.metrics != nil {
		s.metrics.RecordBookingLink(ctx, outcome, viaHandle)
	}
	if result != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrBookingID, result.Booking.ID.String(),
			"already_linked", result.AlreadyLinked)
	}
	return result, err
}

func (s *Service) link(ctx context.Context, input LinkInput) (*LinkResult, telemetry.LinkOutcome, error) {
	if input.CustomerID == uuid.Nil {
		return nil, telemetry.LinkOutcomeRejected, shared.InvalidInput("customer id is required")
	}

	bookingID, err := s.bookingIDFor(input)
	if err != nil {
		return nil, telemetry.LinkOutcomeRejected, err
	}

	ctx = shared.WithElevatedAccess(ctx)

	exists, err := s.customers.Exists(ctx, input.CustomerID)
	if err != nil {
		return nil, telemetry.LinkOutcomeRejected, err
	}
	if !exists {
		return nil, telemetry.LinkOutcomeRejected, shared.NotFound("customer account")
	}

	b, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, telemetry.LinkOutcomeRejected, err
	}
	if b.IsLinked() {
		return s.resolveExisting(b, input.CustomerID)
	}

	won, err := s.bookings.LinkCustomer(ctx, bookingID, input.CustomerID)
	if err != nil {
		return nil, telemetry.LinkOutcomeRejected, err
	}
	if won {
		if _, err := b.LinkTo(input.CustomerID); err != nil {
			return nil, telemetry.LinkOutcomeRejected, err
		}
		s.logger.Info("Booking linked",
			zap.String("booking_id", bookingID.String()),
			zap.String("customer_id", input.CustomerID.String()),
		)
		return &LinkResult{Booking: b}, telemetry.LinkOutcomeLinked, nil
	}

	// Another request linked the booking between our read and the update.
	b, err = s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, telemetry.LinkOutcomeRejected, err
	}
	if !b.IsLinked() {
		return nil, telemetry.LinkOutcomeConflict, shared.Conflict("booking could not be linked, retry")
	}
	return s.resolveExisting(b, input.CustomerID)
}

// bookingIDFor verifies the handle, or falls back to the raw id when allowed
func (s *Service) bookingIDFor(input LinkInput) (uuid.UUID, error) {
	if input.Handle != "" {
		id, err := s.handles.Verify(input.Handle)
		if err != nil {
			return uuid.Nil, shared.WrapDomainError(shared.CodeUnauthorized, "booking handle is invalid or expired", err)
		}
		if input.BookingID != uuid.Nil && input.BookingID != id {
			return uuid.Nil, shared.NewDomainError(shared.CodeForbidden, "booking handle does not match the booking")
		}
		return id, nil
	}

	if !s.cfg.AllowRawIDLink {
		return uuid.Nil, shared.NewDomainError(shared.CodeUnauthorized, "a booking handle is required to link a booking")
	}
	if input.BookingID == uuid.Nil {
		return uuid.Nil, shared.InvalidInput("booking id is required")
	}
	return input.BookingID, nil
}

func (s *Service) findBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("booking")
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) resolveExisting(b *booking.Booking, customerID uuid.UUID) (*LinkResult, telemetry.LinkOutcome, error) {
	if _, err := b.LinkTo(customerID); err != nil {
		if errors.Is(err, booking.ErrLinkedToAnotherCustomer) {
			s.logger.Warn("Booking link refused, already owned by another customer",
				zap.String("booking_id", b.ID.String()),
				zap.String("customer_id", customerID.String()),
			)
			return nil, telemetry.LinkOutcomeConflict, err
		}
		return nil, telemetry.LinkOutcomeRejected, err
	}
	return &LinkResult{Booking: b, AlreadyLinked: true}, telemetry.LinkOutcomeAlreadyLinked, nil
}

// ListForCustomer returns the customer's bookings plus unlinked bookings made
// with the same email or phone. Listing never links anything.
func (s *Service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]booking.Booking, error) {
	ctx = shared.WithElevatedAccess(ctx)

	var email, phoneDigits string
	account, err := s.customers.FindByID(ctx, customerID)
	switch {
	case err == nil:
		email = account.Email
		phoneDigits = identity.NormalizePhone(account.Phone)
	case errors.Is(err, shared.ErrNotFound):
	default:
		return nil, err
	}

	rows, err := s.bookings.ListForCustomer(ctx, customerID, email, phoneDigits)
	if err != nil {
		return nil, err
	}
	// the store matches on indexed columns; the domain rule has the final say
	visible := rows[:0]
	for _, b := range rows {
		if b.CustomerID != nil && *b.CustomerID == customerID {
			visible = append(visible, b)
			continue
		}
		if b.CustomerID == nil && b.MatchesContact(email, phoneDigits) {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// ListForMerchant returns a page of the merchant's bookings
func (s *Service) ListForMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) (shared.Paginated[booking.Booking], error) {
	items, total, err := s.bookings.ListByMerchant(ctx, merchantID, filter)
	if err != nil {
		return shared.Paginated[booking.Booking]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}

// UpdateStatus moves a merchant's booking to a new business status
func (s *Service) UpdateStatus(ctx context.Context, merchantID, bookingID uuid.UUID, status string) (*booking.Booking, error) {
	b, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.MerchantID != merchantID {
		return nil, shared.NotFound("booking")
	}
	if err := b.TransitionTo(booking.Status(status)); err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateStatus(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("Booking status changed",
		zap.String("booking_id", b.ID.String()),
		zap.String("status", string(b.Status)),
	)
	return b, nil
}
