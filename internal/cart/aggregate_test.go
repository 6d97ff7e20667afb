package cart

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplyhq/shoply-backend/internal/sellers"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
)

type stubSellers struct {
	profiles map[uuid.UUID]*sellers.Profile
	failFor  map[uuid.UUID]error
}

func (s *stubSellers) GetSeller(ctx context.Context, sellerID uuid.UUID) (*sellers.Profile, error) {
	if err, ok := s.failFor[sellerID]; ok {
		return nil, err
	}
	if profile, ok := s.profiles[sellerID]; ok {
		return profile, nil
	}
	return nil, errors.New("seller not found")
}

func testCheckoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		TaxRate:               0.10,
		StandardFeeCents:      500,
		StandardLeadDays:      5,
		ExpressFeeCents:       1500,
		ExpressLeadDays:       2,
		InternationalFeeCents: 4500,
		InternationalLeadDays: 12,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func availableProfile(id uuid.UUID, name string) *sellers.Profile {
	return &sellers.Profile{ID: id, Name: name, Slug: name, IsAvailable: true}
}

func cartItem(sellerID uuid.UUID, priceCents, quantity int) Item {
	return Item{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Quantity:  quantity,
		Snapshot:  ProductSnapshot{SellerID: sellerID, Title: "Item", PriceCents: priceCents},
	}
}

func newTestAggregator(t *testing.T, sellerSvc sellerLoader) *Aggregator {
	t.Helper()

	agg, err := NewAggregator(sellerSvc, testCheckoutConfig(), testLogger())
	require.NoError(t, err)
	return agg
}

func TestAggregateGroupTotals(t *testing.T) {
	t.Parallel()

	sellerID := uuid.New()
	agg := newTestAggregator(t, &stubSellers{profiles: map[uuid.UUID]*sellers.Profile{
		sellerID: availableProfile(sellerID, "Harbor Goods"),
	}})

	snapshot := NewSnapshot("user:test")
	snapshot.Items = []Item{
		cartItem(sellerID, 1000, 2),
		cartItem(sellerID, 3000, 1),
	}
	snapshot.SellerCoupons[sellerID] = AppliedCoupon{Code: "TEN", DiscountCents: 1000}

	groups, err := agg.Aggregate(context.Background(), snapshot, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	group := groups[0]
	assert.Equal(t, 5000, group.SubtotalCents)
	assert.Equal(t, 1000, group.DiscountCents)
	assert.Equal(t, 400, group.TaxCents)
	assert.Equal(t, 500, group.ShippingCents)
	assert.Equal(t, 4900, group.TotalCents)
	assert.Equal(t, enums.ShippingMethodStandard, group.ShippingMethod)
	assert.True(t, group.IsAvailable)

	// total identity holds for every group
	after := group.SubtotalCents - group.DiscountCents
	assert.Equal(t, after+group.TaxCents+group.ShippingCents, group.TotalCents)
}

func TestAggregateIsDeterministic(t *testing.T) {
	t.Parallel()

	sellerA := uuid.New()
	sellerB := uuid.New()
	agg := newTestAggregator(t, &stubSellers{profiles: map[uuid.UUID]*sellers.Profile{
		sellerA: availableProfile(sellerA, "A"),
		sellerB: availableProfile(sellerB, "B"),
	}})

	snapshot := NewSnapshot("user:test")
	snapshot.Items = []Item{
		cartItem(sellerA, 1000, 2),
		cartItem(sellerB, 5000, 1),
		cartItem(sellerA, 700, 3),
	}

	first, err := agg.Aggregate(context.Background(), snapshot, nil)
	require.NoError(t, err)
	for range 5 {
		again, err := agg.Aggregate(context.Background(), snapshot, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAggregateSellerLookupFailure(t *testing.T) {
	t.Parallel()

	sellerID := uuid.New()
	agg := newTestAggregator(t, &stubSellers{failFor: map[uuid.UUID]error{
		sellerID: errors.New("directory down"),
	}})

	snapshot := NewSnapshot("user:test")
	snapshot.Items = []Item{cartItem(sellerID, 1000, 1)}

	groups, err := agg.Aggregate(context.Background(), snapshot, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Nil(t, groups[0].Seller)
	assert.False(t, groups[0].IsAvailable)
	require.Len(t, groups[0].Warnings, 1)
	assert.Equal(t, enums.SellerGroupWarningTypeSellerLookup, groups[0].Warnings[0].Type)
}

func TestAggregateUnavailableSellerStillReturned(t *testing.T) {
	t.Parallel()

	sellerID := uuid.New()
	profile := availableProfile(sellerID, "Paused Shop")
	profile.IsAvailable = false
	agg := newTestAggregator(t, &stubSellers{profiles: map[uuid.UUID]*sellers.Profile{sellerID: profile}})

	snapshot := NewSnapshot("user:test")
	snapshot.Items = []Item{cartItem(sellerID, 2000, 1)}

	groups, err := agg.Aggregate(context.Background(), snapshot, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.False(t, groups[0].IsAvailable)
	require.Len(t, groups[0].Warnings, 1)
	assert.Equal(t, enums.SellerGroupWarningTypeSellerUnavailable, groups[0].Warnings[0].Type)
	assert.Equal(t, 2000, groups[0].SubtotalCents)
}

func TestAggregateSkipsItemsWithoutSeller(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, &stubSellers{})

	snapshot := NewSnapshot("user:test")
	snapshot.Items = []Item{cartItem(uuid.Nil, 1000, 1)}

	groups, err := agg.Aggregate(context.Background(), snapshot, nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestAggregateShippingMethodTiers(t *testing.T) {
	t.Parallel()

	sellerID := uuid.New()
	agg := newTestAggregator(t, &stubSellers{profiles: map[uuid.UUID]*sellers.Profile{
		sellerID: availableProfile(sellerID, "A"),
	}})

	snapshot := NewSnapshot("user:test")
	snapshot.Items = []Item{cartItem(sellerID, 1000, 1)}

	groups, err := agg.Aggregate(context.Background(), snapshot, map[uuid.UUID]enums.ShippingMethod{
		sellerID: enums.ShippingMethodExpress,
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1500, groups[0].ShippingCents)
	assert.Equal(t, enums.ShippingMethodExpress, groups[0].ShippingMethod)
}

// A global coupon changes only the overall figures; per-seller groups keep
// their unmodified subtotal/tax/shipping.
func TestGlobalCouponScopeIsolation(t *testing.T) {
	t.Parallel()

	sellerA := uuid.New()
	sellerB := uuid.New()
	agg := newTestAggregator(t, &stubSellers{profiles: map[uuid.UUID]*sellers.Profile{
		sellerA: availableProfile(sellerA, "A"),
		sellerB: availableProfile(sellerB, "B"),
	}})

	snapshot := NewSnapshot("user:test")
	snapshot.Items = []Item{
		cartItem(sellerA, 1000, 2),
		cartItem(sellerA, 1000, 2),
		cartItem(sellerB, 5000, 1),
	}
	// 10% of the 9000 subtotal
	snapshot.GlobalCoupon = &AppliedCoupon{Code: "TENOFF", DiscountCents: 900}

	groups, err := agg.Aggregate(context.Background(), snapshot, nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	for _, group := range groups {
		assert.Zero(t, group.DiscountCents)
		after := group.SubtotalCents - group.DiscountCents
		assert.Equal(t, after+group.TaxCents+group.ShippingCents, group.TotalCents)
	}

	totals, err := agg.SelectedTotals(context.Background(), snapshot, nil)
	require.NoError(t, err)
	assert.Equal(t, 9000, totals.SubtotalCents)
	assert.Equal(t, 900, totals.DiscountCents)

	groupSum := 0
	for _, group := range groups {
		groupSum += group.TotalCents
	}
	assert.Equal(t, groupSum-900, totals.TotalCents)
}

func TestSelectedTotalsHonorSelection(t *testing.T) {
	t.Parallel()

	sellerA := uuid.New()
	sellerB := uuid.New()
	agg := newTestAggregator(t, &stubSellers{profiles: map[uuid.UUID]*sellers.Profile{
		sellerA: availableProfile(sellerA, "A"),
		sellerB: availableProfile(sellerB, "B"),
	}})

	snapshot := NewSnapshot("user:test")
	snapshot.Items = []Item{
		cartItem(sellerA, 1000, 1),
		cartItem(sellerB, 5000, 1),
	}
	snapshot.SelectedSellerIDs = []uuid.UUID{sellerA}

	totals, err := agg.SelectedTotals(context.Background(), snapshot, nil)
	require.NoError(t, err)
	assert.Equal(t, 1000, totals.SubtotalCents)
	assert.Equal(t, 100, totals.TaxCents)
	assert.Equal(t, 500, totals.ShippingCents)
	assert.Equal(t, 1600, totals.TotalCents)
}
