package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/booking"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/persistence/models"
	"github.com/slotbook/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormBookingRepository implements booking.Repository using GORM
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID finds a booking by its ID
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var model models.BookingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Create inserts a booking
func (r *GormBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	var model models.BookingModel
	model.FromDomain(b)
	return translateError(r.db.WithContext(ctx).Create(&model).Error)
}

// LinkCustomer sets customer_id with a conditional update. The
// "customer_id IS NULL" predicate makes the database arbitrate concurrent
// links: exactly one caller sees a changed row.
func (r *GormBookingRepository) LinkCustomer(ctx context.Context, bookingID, customerID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.BookingModel{}).
		Where("id = ? AND customer_id IS NULL", bookingID).
		Updates(map[string]any{
			"customer_id": customerID,
			"updated_at":  time.Now().UTC(),
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ListForCustomer returns bookings linked to the customer plus unlinked
// bookings whose contact email or phone digits match, newest first.
func (r *GormBookingRepository) ListForCustomer(ctx context.Context, customerID uuid.UUID, email, phoneDigits string) ([]booking.Booking, error) {
	var matches []string
	args := []any{customerID}
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		matches = append(matches, "LOWER(contact_email) = ?")
		args = append(args, email)
	}
	if phoneDigits != "" {
		matches = append(matches, "contact_phone_digits = ?")
		args = append(args, phoneDigits)
	}

	condition := "customer_id = ?"
	if len(matches) > 0 {
		condition = "(customer_id = ? OR (customer_id IS NULL AND (" + strings.Join(matches, " OR ") + ")))"
	}

	var rows []models.BookingModel
	if err := r.db.WithContext(ctx).
		Where(condition, args...).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toBookings(rows), nil
}

// ListByMerchant lists a merchant's bookings with pagination
func (r *GormBookingRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) ([]booking.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BookingModel{}).Scopes(tenant.MerchantScope(merchantID))
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(contact_name) LIKE ? OR LOWER(contact_email) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orderBy := ValidateSortField(filter.OrderBy, BookingSortFields, "created_at")
	var rows []models.BookingModel
	if err := query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return toBookings(rows), total, nil
}

// UpdateStatus persists a status change made by the merchant
func (r *GormBookingRepository) UpdateStatus(ctx context.Context, b *booking.Booking) error {
	result := r.db.WithContext(ctx).Model(&models.BookingModel{}).
		Where("id = ? AND merchant_id = ?", b.ID, b.MerchantID).
		Updates(map[string]any{
			"status":     b.Status,
			"updated_at": b.UpdatedAt,
			"version":    b.Version,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toBookings(rows []models.BookingModel) []booking.Booking {
	bookings := make([]booking.Booking, len(rows))
	for i := range rows {
		bookings[i] = *rows[i].ToDomain()
	}
	return bookings
}
