package coupons

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplyhq/shoply-backend/pkg/db/models"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
)

func newTestEngine(t *testing.T, coupons ...*models.Coupon) Engine {
	t.Helper()

	eng, err := NewEngine(newTestService(t, coupons...))
	require.NoError(t, err)
	return eng
}

func intPtr(v int) *int { return &v }

func TestApplyPercentage(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, &models.Coupon{
		Code:          "SAVE20",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: 20,
		IsActive:      true,
	})

	applied, err := eng.Apply(context.Background(), "SAVE20", 10000)
	require.NoError(t, err)
	assert.Equal(t, 2000, applied.DiscountCents)

	// Fractional cents round down.
	applied, err = eng.Apply(context.Background(), "SAVE20", 9999)
	require.NoError(t, err)
	assert.Equal(t, 1999, applied.DiscountCents)
}

func TestApplyPercentageCap(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, &models.Coupon{
		Code:             "SAVE20",
		DiscountType:     enums.DiscountTypePercentage,
		DiscountValue:    20,
		MaxDiscountCents: intPtr(5000),
		IsActive:         true,
	})

	applied, err := eng.Apply(context.Background(), "SAVE20", 100000)
	require.NoError(t, err)
	assert.Equal(t, 5000, applied.DiscountCents)
}

func TestApplyAbsoluteClampsToSubtotal(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, &models.Coupon{
		Code:          "FIVER",
		DiscountType:  enums.DiscountTypeAbsolute,
		DiscountValue: 500,
		IsActive:      true,
	})

	applied, err := eng.Apply(context.Background(), "FIVER", 300)
	require.NoError(t, err)
	assert.Equal(t, 300, applied.DiscountCents)
}

func TestApplyRejectsZeroDiscount(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, &models.Coupon{
		Code:          "SAVE20",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: 20,
		IsActive:      true,
	})

	_, err := eng.Apply(context.Background(), "SAVE20", 0)
	assertValidation(t, err)
}

func TestApplyFirst(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t,
		&models.Coupon{Code: "WELCOME10", DiscountType: enums.DiscountTypePercentage, DiscountValue: 10, IsActive: true, MinSubtotalCents: 50000},
		&models.Coupon{Code: "SAVE5", DiscountType: enums.DiscountTypeAbsolute, DiscountValue: 500, IsActive: true},
	)

	// First candidate misses its minimum spend; the second applies.
	applied, err := eng.ApplyFirst(context.Background(), []string{"WELCOME10", "SAVE5"}, 10000)
	require.NoError(t, err)
	require.NotNil(t, applied)
	assert.Equal(t, "SAVE5", applied.Code)

	applied, err = eng.ApplyFirst(context.Background(), []string{"NOPE"}, 10000)
	require.NoError(t, err)
	assert.Nil(t, applied)
}
