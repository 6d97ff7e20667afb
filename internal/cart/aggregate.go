package cart

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/shoplyhq/shoply-backend/internal/sellers"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
	"github.com/shoplyhq/shoply-backend/pkg/types"
)

type sellerLoader interface {
	GetSeller(ctx context.Context, sellerID uuid.UUID) (*sellers.Profile, error)
}

// SellerGroup is one seller's slice of the cart with its derived money
// figures. Regenerated on demand; never the source of truth.
type SellerGroup struct {
	SellerID       uuid.UUID                 `json:"seller_id"`
	Seller         *sellers.Profile          `json:"seller,omitempty"`
	Items          []Item                    `json:"items"`
	SubtotalCents  int                       `json:"subtotal_cents"`
	DiscountCents  int                       `json:"discount_cents"`
	TaxCents       int                       `json:"tax_cents"`
	ShippingCents  int                       `json:"shipping_cents"`
	TotalCents     int                       `json:"total_cents"`
	ShippingMethod enums.ShippingMethod      `json:"shipping_method"`
	IsAvailable    bool                      `json:"is_available"`
	Warnings       types.SellerGroupWarnings `json:"warnings,omitempty"`
}

// Totals are the overall derived figures across the selected seller groups.
type Totals struct {
	SubtotalCents int `json:"subtotal_cents"`
	DiscountCents int `json:"discount_cents"`
	TaxCents      int `json:"tax_cents"`
	ShippingCents int `json:"shipping_cents"`
	TotalCents    int `json:"total_cents"`
}

// Aggregator partitions cart items into per-seller groups and derives
// subtotal/discount/tax/shipping/total for each. Pure over its inputs plus
// the read-only seller lookup.
type Aggregator struct {
	sellers sellerLoader
	cfg     config.CheckoutConfig
	logg    *logger.Logger
}

// NewAggregator builds the seller group aggregator.
func NewAggregator(sellerSvc sellerLoader, cfg config.CheckoutConfig, logg *logger.Logger) (*Aggregator, error) {
	if sellerSvc == nil {
		return nil, fmt.Errorf("seller service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Aggregator{sellers: sellerSvc, cfg: cfg, logg: logg}, nil
}

// Aggregate partitions all active cart items into seller groups.
func (a *Aggregator) Aggregate(ctx context.Context, snapshot *Snapshot, methods map[uuid.UUID]enums.ShippingMethod) ([]SellerGroup, error) {
	return a.aggregateItems(ctx, snapshot.Items, snapshot.SellerCoupons, methods)
}

// AggregateSelected partitions only the checkout-eligible subset.
func (a *Aggregator) AggregateSelected(ctx context.Context, snapshot *Snapshot, methods map[uuid.UUID]enums.ShippingMethod) ([]SellerGroup, error) {
	return a.aggregateItems(ctx, snapshot.SelectedItems(), snapshot.SellerCoupons, methods)
}

// SelectedTotals sums the derived figures over the selected groups and then
// applies the global coupon against the remaining subtotal. Seller-level
// figures are never affected by the global coupon.
func (a *Aggregator) SelectedTotals(ctx context.Context, snapshot *Snapshot, methods map[uuid.UUID]enums.ShippingMethod) (Totals, error) {
	groups, err := a.AggregateSelected(ctx, snapshot, methods)
	if err != nil {
		return Totals{}, err
	}

	var totals Totals
	for _, group := range groups {
		totals.SubtotalCents += group.SubtotalCents
		totals.DiscountCents += group.DiscountCents
		totals.TaxCents += group.TaxCents
		totals.ShippingCents += group.ShippingCents
		totals.TotalCents += group.TotalCents
	}

	if snapshot.GlobalCoupon != nil {
		remaining := totals.SubtotalCents - totals.DiscountCents
		global := snapshot.GlobalCoupon.DiscountCents
		if global > remaining {
			global = remaining
		}
		if global > 0 {
			totals.DiscountCents += global
			totals.TotalCents -= global
		}
	}
	return totals, nil
}

func (a *Aggregator) aggregateItems(ctx context.Context, items []Item, coupons map[uuid.UUID]AppliedCoupon, methods map[uuid.UUID]enums.ShippingMethod) ([]SellerGroup, error) {
	partitions := map[uuid.UUID][]Item{}
	for _, item := range items {
		// Items without a resolvable seller cannot be grouped or checked out.
		if item.Snapshot.SellerID == uuid.Nil {
			continue
		}
		partitions[item.Snapshot.SellerID] = append(partitions[item.Snapshot.SellerID], item)
	}

	sellerIDs := make([]uuid.UUID, 0, len(partitions))
	for sellerID := range partitions {
		sellerIDs = append(sellerIDs, sellerID)
	}
	sort.Slice(sellerIDs, func(i, j int) bool {
		return sellerIDs[i].String() < sellerIDs[j].String()
	})

	profiles := make(map[uuid.UUID]*sellers.Profile, len(sellerIDs))
	lookupFailures := make(map[uuid.UUID]error, len(sellerIDs))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for _, sellerID := range sellerIDs {
		group.Go(func() error {
			profile, err := a.sellers.GetSeller(groupCtx, sellerID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Best effort: a failed lookup degrades the group, it never
				// fails aggregation.
				lookupFailures[sellerID] = err
				return nil
			}
			profiles[sellerID] = profile
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	groups := make([]SellerGroup, 0, len(sellerIDs))
	for _, sellerID := range sellerIDs {
		sellerItems := partitions[sellerID]
		method := methods[sellerID]
		if !method.IsValid() {
			method = enums.ShippingMethodStandard
		}

		subtotal := SubtotalCents(sellerItems)
		discount := 0
		if coupon, ok := coupons[sellerID]; ok {
			discount = coupon.DiscountCents
			if discount > subtotal {
				discount = subtotal
			}
		}
		afterDiscount := subtotal - discount
		tax := taxCents(afterDiscount, a.cfg.TaxRate)
		shipping := a.cfg.Tiers()[method.String()].BaseFeeCents

		sellerGroup := SellerGroup{
			SellerID:       sellerID,
			Seller:         profiles[sellerID],
			Items:          sellerItems,
			SubtotalCents:  subtotal,
			DiscountCents:  discount,
			TaxCents:       tax,
			ShippingCents:  shipping,
			TotalCents:     afterDiscount + tax + shipping,
			ShippingMethod: method,
			IsAvailable:    true,
		}

		if err, ok := lookupFailures[sellerID]; ok {
			a.logg.Error(a.logg.WithField(ctx, "seller_id", sellerID.String()), "seller lookup failed during aggregation", err)
			sellerGroup.IsAvailable = false
			sellerGroup.Warnings = append(sellerGroup.Warnings, types.SellerGroupWarning{
				Type:    enums.SellerGroupWarningTypeSellerLookup,
				Message: "seller details are temporarily unavailable",
			})
		} else if profile := profiles[sellerID]; profile != nil && !profile.IsAvailable {
			sellerGroup.IsAvailable = false
			sellerGroup.Warnings = append(sellerGroup.Warnings, types.SellerGroupWarning{
				Type:    enums.SellerGroupWarningTypeSellerUnavailable,
				Message: fmt.Sprintf("%s is currently unavailable", profile.Name),
			})
		}

		groups = append(groups, sellerGroup)
	}
	return groups, nil
}

func taxCents(afterDiscountCents int, rate float64) int {
	if afterDiscountCents <= 0 || rate <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(afterDiscountCents)).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		IntPart())
}
