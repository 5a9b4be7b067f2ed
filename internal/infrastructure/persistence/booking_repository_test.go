package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slotbook/backend/internal/domain/booking"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(t *testing.T, merchantID uuid.UUID, name, email, phone string) *booking.Booking {
	t.Helper()
	b, err := booking.NewAnonymousBooking(merchantID, booking.NewBookingParams{
		Name:  name,
		Email: email,
		Phone: phone,
		LineItems: []booking.LineItem{
			{Name: "Haircut", Quantity: 1, UnitPrice: decimal.RequireFromString("25.50")},
		},
	})
	require.NoError(t, err)
	return b
}

func TestGormBookingRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBookingRepository(db)
	ctx := context.Background()
	merchant := seedMerchant(t, db, "salon")

	b := newTestBooking(t, merchant.ID, "Jane", "Jane@Example.com", "555-0100")
	require.NoError(t, repo.Create(ctx, b))

	found, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", found.Contact.Name)
	assert.Equal(t, "jane@example.com", found.Contact.Email)
	assert.Equal(t, booking.StatusPending, found.Status)
	assert.Nil(t, found.CustomerID)
	require.Len(t, found.LineItems, 1)
	assert.Equal(t, "service", found.LineItems[0].Kind)
	assert.True(t, decimal.RequireFromString("25.50").Equal(found.Total))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormBookingRepository_LinkCustomer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBookingRepository(db)
	ctx := context.Background()
	merchant := seedMerchant(t, db, "salon")

	b := newTestBooking(t, merchant.ID, "Jane", "", "555-0100")
	require.NoError(t, repo.Create(ctx, b))

	first, second := uuid.New(), uuid.New()

	changed, err := repo.LinkCustomer(ctx, b.ID, first)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.LinkCustomer(ctx, b.ID, second)
	require.NoError(t, err)
	assert.False(t, changed, "a linked booking must never be overwritten")

	found, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, found.CustomerID)
	assert.Equal(t, first, *found.CustomerID)
	assert.Equal(t, 2, found.Version)
}

func TestGormBookingRepository_LinkCustomer_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBookingRepository(db)
	ctx := context.Background()
	merchant := seedMerchant(t, db, "salon")

	b := newTestBooking(t, merchant.ID, "Jane", "", "555-0100")
	require.NoError(t, repo.Create(ctx, b))

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := repo.LinkCustomer(ctx, b.ID, uuid.New())
			assert.NoError(t, err)
			if changed {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestGormBookingRepository_ListForCustomer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBookingRepository(db)
	ctx := context.Background()
	merchant := seedMerchant(t, db, "salon")
	customer := uuid.New()

	linked := newTestBooking(t, merchant.ID, "Jane", "", "555-0199")
	byEmail := newTestBooking(t, merchant.ID, "Jane", "JANE@example.com", "555-0111")
	byPhone := newTestBooking(t, merchant.ID, "Jane", "", "(555) 0100")
	stranger := newTestBooking(t, merchant.ID, "Bob", "bob@example.com", "555-0999")
	otherCustomers := newTestBooking(t, merchant.ID, "Jane", "jane@example.com", "555-0100")
	for _, b := range []*booking.Booking{linked, byEmail, byPhone, stranger, otherCustomers} {
		require.NoError(t, repo.Create(ctx, b))
	}
	_, err := repo.LinkCustomer(ctx, linked.ID, customer)
	require.NoError(t, err)
	_, err = repo.LinkCustomer(ctx, otherCustomers.ID, uuid.New())
	require.NoError(t, err)

	bookings, err := repo.ListForCustomer(ctx, customer, "jane@example.com", "5550100")
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{linked.ID, byEmail.ID, byPhone.ID}, ids)

	t.Run("no contact details returns linked only", func(t *testing.T) {
		bookings, err := repo.ListForCustomer(ctx, customer, "", "")
		require.NoError(t, err)
		require.Len(t, bookings, 1)
		assert.Equal(t, linked.ID, bookings[0].ID)
	})

	t.Run("listing never links", func(t *testing.T) {
		found, err := repo.FindByID(ctx, byEmail.ID)
		require.NoError(t, err)
		assert.Nil(t, found.CustomerID)
	})
}

func TestGormBookingRepository_ListByMerchantAndStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBookingRepository(db)
	ctx := context.Background()
	salon := seedMerchant(t, db, "salon")
	spa := seedMerchant(t, db, "spa")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newTestBooking(t, salon.ID, "Jane", "", "555-0100")))
	}
	other := newTestBooking(t, spa.ID, "Bob", "", "555-0101")
	require.NoError(t, repo.Create(ctx, other))

	bookings, total, err := repo.ListByMerchant(ctx, salon.ID, shared.Filter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, bookings, 2)

	require.NoError(t, other.TransitionTo(booking.StatusConfirmed))
	require.NoError(t, repo.UpdateStatus(ctx, other))
	found, err := repo.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, found.Status)

	t.Run("status update from another merchant is not found", func(t *testing.T) {
		forged := *other
		forged.MerchantID = salon.ID
		err := repo.UpdateStatus(ctx, &forged)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
