package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shoplyhq/shoply-backend/internal/catalog"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/types"
)

type productLoader interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductDetail, error)
}

// ItemValidation is the per-item verdict from reconciling the cart against
// the live catalog. Price drift warns; stock shortfall and unavailability
// block checkout for the affected seller group.
type ItemValidation struct {
	ItemID       uuid.UUID              `json:"item_id"`
	SellerID     uuid.UUID              `json:"seller_id"`
	IsValid      bool                   `json:"is_valid"`
	PriceChanged bool                   `json:"price_changed"`
	StockChanged bool                   `json:"stock_changed"`
	Unavailable  bool                   `json:"unavailable"`
	Warnings     types.CartItemWarnings `json:"warnings,omitempty"`
}

// HasBlocking reports whether any verdict must stop checkout.
func HasBlocking(results []ItemValidation) bool {
	for _, result := range results {
		if !result.IsValid {
			return true
		}
	}
	return false
}

// BlockingSellerIDs collects the sellers whose groups may not be submitted.
func BlockingSellerIDs(results []ItemValidation) map[uuid.UUID]struct{} {
	blocked := map[uuid.UUID]struct{}{}
	for _, result := range results {
		if !result.IsValid {
			blocked[result.SellerID] = struct{}{}
		}
	}
	return blocked
}

// Validator cross-checks cart items against the catalog. It never mutates
// the snapshot; callers decide what to do with the verdicts.
type Validator struct {
	catalog productLoader
}

// NewValidator builds the cart validator.
func NewValidator(catalogSvc productLoader) (*Validator, error) {
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &Validator{catalog: catalogSvc}, nil
}

// Validate issues one catalog lookup per distinct product and returns one
// verdict per item, in item order.
func (v *Validator) Validate(ctx context.Context, items []Item) ([]ItemValidation, error) {
	if len(items) == 0 {
		return nil, nil
	}

	distinct := map[uuid.UUID]struct{}{}
	for _, item := range items {
		distinct[item.ProductID] = struct{}{}
	}

	products := make(map[uuid.UUID]*catalog.ProductDetail, len(distinct))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for productID := range distinct {
		group.Go(func() error {
			product, err := v.catalog.GetProduct(groupCtx, productID)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					// Missing products surface as unavailable verdicts.
					return nil
				}
				return err
			}
			mu.Lock()
			products[productID] = product
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate cart against catalog")
	}

	results := make([]ItemValidation, 0, len(items))
	for _, item := range items {
		results = append(results, v.validateItem(item, products[item.ProductID]))
	}
	return results, nil
}

func (v *Validator) validateItem(item Item, product *catalog.ProductDetail) ItemValidation {
	result := ItemValidation{
		ItemID:   item.ID,
		SellerID: item.Snapshot.SellerID,
		IsValid:  true,
	}

	if product == nil || !product.IsPurchasable() {
		result.IsValid = false
		result.Unavailable = true
		result.Warnings = append(result.Warnings, types.CartItemWarning{
			Type:    enums.CartItemWarningTypeUnavailable,
			Message: fmt.Sprintf("%s is no longer available", item.Snapshot.Title),
		})
		return result
	}

	currentPrice, priceErr := product.EffectivePriceCents(item.VariantID)
	currentStock, stockErr := product.EffectiveStock(item.VariantID)
	if priceErr != nil || stockErr != nil {
		// The variant vanished from the listing.
		result.IsValid = false
		result.Unavailable = true
		result.Warnings = append(result.Warnings, types.CartItemWarning{
			Type:    enums.CartItemWarningTypeUnavailable,
			Message: fmt.Sprintf("the selected option for %s is no longer available", item.Snapshot.Title),
		})
		return result
	}

	if currentPrice != item.Snapshot.PriceCents {
		// Warn, don't block.
		result.PriceChanged = true
		result.Warnings = append(result.Warnings, types.CartItemWarning{
			Type: enums.CartItemWarningTypePriceChanged,
			Message: fmt.Sprintf("price of %s changed from %d to %d cents",
				item.Snapshot.Title, item.Snapshot.PriceCents, currentPrice),
		})
	}

	if currentStock < item.Quantity {
		result.IsValid = false
		result.StockChanged = true
		result.Warnings = append(result.Warnings, types.CartItemWarning{
			Type: enums.CartItemWarningTypeStockShortfall,
			Message: fmt.Sprintf("only %d of %s left in stock (you have %d in your cart)",
				currentStock, item.Snapshot.Title, item.Quantity),
		})
	}

	return result
}
