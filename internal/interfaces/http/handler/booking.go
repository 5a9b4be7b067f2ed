package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	bookingapp "github.com/slotbook/backend/internal/application/booking"
	"github.com/slotbook/backend/internal/domain/booking"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/interfaces/http/dto"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
)

// BookingService is the booking lifecycle as the HTTP layer sees it
type BookingService interface {
	Create(ctx context.Context, input bookingapp.CreateBookingInput) (*bookingapp.CreateBookingResult, error)
	Link(ctx context.Context, input bookingapp.LinkInput) (*bookingapp.LinkResult, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]booking.Booking, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) (shared.Paginated[booking.Booking], error)
	UpdateStatus(ctx context.Context, merchantID, bookingID uuid.UUID, status string) (*booking.Booking, error)
}

// BookingHandler serves visitor, customer and merchant booking endpoints
type BookingHandler struct {
	BaseHandler
	bookings BookingService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// LineItemRequest is one cart entry of a booking request
type LineItemRequest struct {
	ItemID    *uuid.UUID      `json:"item_id"`
	Kind      string          `json:"kind" binding:"omitempty,oneof=service product"`
	Name      string          `json:"name" binding:"required,max=200"`
	Quantity  int             `json:"quantity" binding:"required,gte=1,max=1000"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateBookingRequest is an anonymous booking made on a public page
type CreateBookingRequest struct {
	MerchantID      string            `json:"merchant_id" binding:"required,uuid"`
	Name            string            `json:"name" binding:"required,max=200"`
	Email           string            `json:"email" binding:"omitempty,email"`
	Phone           string            `json:"phone" binding:"required,phone"`
	ScheduledAt     *time.Time        `json:"scheduled_at"`
	DurationMinutes int               `json:"duration_minutes" binding:"gte=0,max=1440"`
	Notes           string            `json:"notes" binding:"max=2000"`
	LineItems       []LineItemRequest `json:"line_items" binding:"max=50,dive"`
	Total           *decimal.Decimal  `json:"total"`
}

// LinkBookingRequest claims an anonymous booking for the signed-in customer.
// Handle is preferred; a bare booking id is only honoured when enabled.
type LinkBookingRequest struct {
	BookingID string `json:"booking_id" binding:"omitempty,uuid"`
	Handle    string `json:"handle" binding:"required_without=BookingID,max=2048"`
}

// UpdateBookingStatusRequest moves a booking through its workflow
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed completed cancelled"`
}

// ContactResponse is the contact captured at booking time
type ContactResponse struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone"`
}

// BookingResponse is the public shape of a booking
type BookingResponse struct {
	ID              uuid.UUID          `json:"id"`
	MerchantID      uuid.UUID          `json:"merchant_id"`
	CustomerID      *uuid.UUID         `json:"customer_id,omitempty"`
	Status          string             `json:"status"`
	Contact         ContactResponse    `json:"contact"`
	ScheduledAt     *time.Time         `json:"scheduled_at,omitempty"`
	DurationMinutes int                `json:"duration_minutes,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	LineItems       []booking.LineItem `json:"line_items"`
	Total           decimal.Decimal    `json:"total"`
	CreatedAt       time.Time          `json:"created_at"`
}

// CreateBookingResponse returns the booking and the handle that claims it later
type CreateBookingResponse struct {
	Booking         BookingResponse `json:"booking"`
	Handle          string          `json:"handle"`
	HandleExpiresAt time.Time       `json:"handle_expires_at"`
}

// LinkBookingResponse reports a successful link
type LinkBookingResponse struct {
	Booking       BookingResponse `json:"booking"`
	AlreadyLinked bool            `json:"already_linked"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	items := b.LineItems
	if items == nil {
		items = []booking.LineItem{}
	}
	return BookingResponse{
		ID:         b.ID,
		MerchantID: b.MerchantID,
		CustomerID: b.CustomerID,
		Status:     string(b.Status),
		Contact: ContactResponse{
			Name:  b.Contact.Name,
			Email: b.Contact.Email,
			Phone: b.Contact.Phone,
		},
		ScheduledAt:     b.ScheduledAt,
		DurationMinutes: b.DurationMinutes,
		Notes:           b.Notes,
		LineItems:       items,
		Total:           b.Total,
		CreatedAt:       b.CreatedAt,
	}
}

func toBookingResponses(items []booking.Booking) []BookingResponse {
	out := make([]BookingResponse, len(items))
	for i := range items {
		out[i] = toBookingResponse(&items[i])
	}
	return out
}

// Create handles POST /bookings. No authentication is required.
//
//	@ID				createBooking
//	@Summary		Create an anonymous booking
//	@Description	Books with a merchant without signing in. The response carries a handle that links the booking to a customer account later.
//	@Tags			bookings
//	@Accept			json
//	@Produce		json
//	@Param			request	body	CreateBookingRequest	true	"Booking"
//	@Success		201	{object}	APIResponse[CreateBookingResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		429	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	items := make([]booking.LineItem, len(req.LineItems))
	for i, li := range req.LineItems {
		items[i] = booking.LineItem{
			ItemID:    li.ItemID,
			Kind:      li.Kind,
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
		}
	}

	result, err := h.bookings.Create(c.Request.Context(), bookingapp.CreateBookingInput{
		MerchantID:      uuid.MustParse(req.MerchantID),
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		LineItems:       items,
		Total:           req.Total,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, CreateBookingResponse{
		Booking:         toBookingResponse(result.Booking),
		Handle:          result.Handle,
		HandleExpiresAt: result.HandleExpiresAt,
	})
}

// Link handles PATCH /bookings
//
//	@ID				linkBooking
//	@Summary		Link a booking to the signed-in customer
//	@Description	Claims an anonymous booking with its handle. A booking links to at most one customer.
//	@Tags			bookings
//	@Accept			json
//	@Produce		json
//	@Param			request	body	LinkBookingRequest	true	"Link request"
//	@Success		200	{object}	APIResponse[LinkBookingResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/bookings [patch]
func (h *BookingHandler) Link(c *gin.Context) {
	var req LinkBookingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input := bookingapp.LinkInput{
		Handle:     req.Handle,
		CustomerID: middleware.GetIdentityID(c),
	}
	if req.BookingID != "" {
		input.BookingID = uuid.MustParse(req.BookingID)
	}

	result, err := h.bookings.Link(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LinkBookingResponse{
		Booking:       toBookingResponse(result.Booking),
		AlreadyLinked: result.AlreadyLinked,
	})
}

// ListMine handles GET /bookings/mine. Unlinked bookings that match the
// customer's contact details are included but stay unlinked.
//
//	@ID				listMyBookings
//	@Summary		List the customer's bookings
//	@Description	Linked bookings plus unlinked ones matching the customer's contact details.
//	@Tags			bookings
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]BookingResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/bookings/mine [get]
func (h *BookingHandler) ListMine(c *gin.Context) {
	items, err := h.bookings.ListForCustomer(c.Request.Context(), middleware.GetIdentityID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toBookingResponses(items))
}

// ListForMerchant handles GET /merchant/bookings
//
//	@ID				listMerchantBookings
//	@Summary		List the merchant's bookings
//	@Tags			merchant
//	@Produce		json
//	@Param			page	query	int	false	"Page number" minimum(1)
//	@Param			page_size	query	int	false	"Page size" minimum(1) maximum(100)
//	@Param			order_by	query	string	false	"Sort field"
//	@Param			order_dir	query	string	false	"Sort direction" Enums(asc, desc)
//	@Param			search	query	string	false	"Search term"
//	@Success		200	{object}	APIResponse[[]BookingResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/bookings [get]
func (h *BookingHandler) ListForMerchant(c *gin.Context) {
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.bookings.ListForMerchant(c.Request.Context(), middleware.GetMerchantID(c), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toBookingResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// UpdateStatus handles PATCH /merchant/bookings/:id/status
//
//	@ID				updateBookingStatus
//	@Summary		Change a booking's status
//	@Tags			merchant
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Resource ID" format(uuid)
//	@Param			request	body	UpdateBookingStatusRequest	true	"New status"
//	@Success		200	{object}	APIResponse[BookingResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/merchant/bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	bookingID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateBookingStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	b, err := h.bookings.UpdateStatus(c.Request.Context(), middleware.GetMerchantID(c), bookingID, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toBookingResponse(b))
}
