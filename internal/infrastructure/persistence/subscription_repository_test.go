package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slotbook/backend/internal/domain/billing"
	"github.com/slotbook/backend/internal/domain/catalog"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTierRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTierRepository(db)
	ctx := context.Background()

	for _, tier := range billing.DefaultTiers() {
		var model models.SubscriptionTierModel
		model.FromDomain(tier)
		require.NoError(t, db.Create(&model).Error)
	}

	pro, err := repo.FindByKey(ctx, billing.TierPro)
	require.NoError(t, err)
	assert.Equal(t, billing.Unlimited, pro.MaxServices)
	assert.True(t, decimal.RequireFromString("19").Equal(pro.PriceMonthly))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, billing.TierFree, all[0].Key)

	_, err = repo.FindByKey(ctx, billing.TierKey("enterprise"))
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormSubscriptionRepository_ReplaceCurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()
	merchantID := uuid.New()

	_, err := repo.FindCurrent(ctx, merchantID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	now := time.Now().UTC().Truncate(time.Second)
	free, err := billing.NewMerchantSubscription(merchantID, billing.TierFree, billing.BillingCycleMonthly, "", now)
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceCurrent(ctx, free))

	pro, err := billing.NewMerchantSubscription(merchantID, billing.TierPro, billing.BillingCycleYearly, "manual upgrade", now)
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceCurrent(ctx, pro))

	current, err := repo.FindCurrent(ctx, merchantID)
	require.NoError(t, err)
	assert.Equal(t, pro.ID, current.ID)
	assert.Equal(t, billing.TierPro, current.TierKey)
	require.NotNil(t, current.ExpiresAt)
	assert.True(t, now.AddDate(1, 0, 0).Equal(*current.ExpiresAt))
	assert.Equal(t, "manual upgrade", current.Notes)

	var rows int64
	require.NoError(t, db.Model(&models.MerchantSubscriptionModel{}).Where("merchant_id = ?", merchantID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestGormUsageSnapshotRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormUsageSnapshotRepository(db)
	ctx := context.Background()
	merchantID := uuid.New()

	first := billing.UsageSnapshot{MerchantID: merchantID, Services: 3, Products: 1, ComputedAt: time.Now().UTC()}
	require.NoError(t, repo.Upsert(ctx, first))

	second := billing.UsageSnapshot{MerchantID: merchantID, Services: 4, GalleryImages: 2, ComputedAt: time.Now().UTC()}
	require.NoError(t, repo.Upsert(ctx, second))

	found, err := repo.Find(ctx, merchantID)
	require.NoError(t, err)
	assert.True(t, found.SameCounts(second))
}

func TestGormResourceCounter_CountLive(t *testing.T) {
	db := setupTestDB(t)
	counter := NewGormResourceCounter(db)
	services := NewGormServiceRepository(db)
	gallery := NewGormGalleryRepository(db)
	ctx := context.Background()

	merchant := seedMerchant(t, db, "salon")
	other := seedMerchant(t, db, "spa")

	var created []*catalog.Service
	for i := 0; i < 3; i++ {
		svc, err := catalog.NewService(merchant.ID, "Cut", "", 30, decimal.NewFromInt(20))
		require.NoError(t, err)
		require.NoError(t, services.Create(ctx, svc))
		created = append(created, svc)
	}
	foreign, err := catalog.NewService(other.ID, "Massage", "", 60, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, services.Create(ctx, foreign))

	require.NoError(t, services.SoftDelete(ctx, merchant.ID, created[0].ID))

	count, err := counter.CountLive(ctx, merchant.ID, billing.ResourceServices)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "soft-deleted and foreign rows are not counted")

	t.Run("deleting twice is not found", func(t *testing.T) {
		err := services.SoftDelete(ctx, merchant.ID, created[0].ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("deleting another merchant's row is not found", func(t *testing.T) {
		err := services.SoftDelete(ctx, merchant.ID, foreign.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("gallery", func(t *testing.T) {
		img, err := catalog.NewGalleryImage(merchant.ID, "image/png", "front", 0)
		require.NoError(t, err)
		require.NoError(t, gallery.Create(ctx, img))

		count, err := counter.CountLive(ctx, merchant.ID, billing.ResourceGalleryImages)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		found, err := gallery.FindByID(ctx, merchant.ID, img.ID)
		require.NoError(t, err)
		assert.Equal(t, img.ObjectKey, found.ObjectKey)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := counter.CountLive(ctx, merchant.ID, billing.ResourceKind("staff"))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}
