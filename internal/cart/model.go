package cart

import (
	"time"

	"github.com/google/uuid"
)

// ProductSnapshot is the denormalized product/variant view captured when an
// item enters the cart. It renders the cart without a live catalog fetch;
// validation reconciles it against the catalog before checkout.
type ProductSnapshot struct {
	SellerID      uuid.UUID `json:"seller_id"`
	Title         string    `json:"title"`
	VariantTitle  string    `json:"variant_title,omitempty"`
	PriceCents    int       `json:"price_cents"`
	StockQuantity int       `json:"stock_quantity"`
	Images        []string  `json:"images,omitempty"`
}

// Item is one selected (product, variant) pair at a quantity.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   string          `json:"owner_id"`
	ProductID uuid.UUID       `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Snapshot  ProductSnapshot `json:"snapshot"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SamePair reports whether two items reference the same (product, variant)
// tuple. At most one cart line exists per pair; adding the same pair again
// merges quantities instead.
func (i Item) SamePair(productID uuid.UUID, variantID *uuid.UUID) bool {
	if i.ProductID != productID {
		return false
	}
	if i.VariantID == nil || variantID == nil {
		return i.VariantID == nil && variantID == nil
	}
	return *i.VariantID == *variantID
}

// LineTotalCents is the item's contribution to its seller subtotal.
func (i Item) LineTotalCents() int {
	return i.Snapshot.PriceCents * i.Quantity
}

// AppliedCoupon stores only the code and the discount snapshotted at apply
// time. Amounts are recomputed from current subtotals whenever totals are
// derived; this record is never trusted as a cached total.
type AppliedCoupon struct {
	Code          string `json:"code"`
	DiscountCents int    `json:"discount_cents"`
}

// Snapshot is the full persisted cart state for one owner.
//
// The selection slices distinguish nil from empty: nil is the default
// everything-selected state, while an explicit empty list means nothing is
// selected (for example after the last selected seller's items were removed).
// The JSON encoding keeps that distinction (null vs []), so it survives the
// snapshot round trip.
type Snapshot struct {
	OwnerID           string                      `json:"owner_id"`
	Items             []Item                      `json:"items"`
	SavedForLater     []Item                      `json:"saved_for_later,omitempty"`
	SelectedItemIDs   []uuid.UUID                 `json:"selected_item_ids"`
	SelectedSellerIDs []uuid.UUID                 `json:"selected_seller_ids"`
	GlobalCoupon      *AppliedCoupon              `json:"global_coupon,omitempty"`
	SellerCoupons     map[uuid.UUID]AppliedCoupon `json:"seller_coupons,omitempty"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// NewSnapshot builds an empty cart for one owner.
func NewSnapshot(ownerID string) *Snapshot {
	return &Snapshot{
		OwnerID:       ownerID,
		SellerCoupons: map[uuid.UUID]AppliedCoupon{},
	}
}

// Clone deep-copies the snapshot so mutations can run on a working copy and
// only replace the confirmed state once persistence succeeds.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	clone := &Snapshot{
		OwnerID:           s.OwnerID,
		Items:             cloneItems(s.Items),
		SavedForLater:     cloneItems(s.SavedForLater),
		SelectedItemIDs:   cloneIDs(s.SelectedItemIDs),
		SelectedSellerIDs: cloneIDs(s.SelectedSellerIDs),
		SellerCoupons:     map[uuid.UUID]AppliedCoupon{},
		UpdatedAt:         s.UpdatedAt,
	}
	if s.GlobalCoupon != nil {
		coupon := *s.GlobalCoupon
		clone.GlobalCoupon = &coupon
	}
	for sellerID, coupon := range s.SellerCoupons {
		clone.SellerCoupons[sellerID] = coupon
	}
	return clone
}

// cloneIDs copies a selection list while preserving the nil/empty
// distinction the selection semantics depend on.
func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item
		if item.VariantID != nil {
			variantID := *item.VariantID
			out[i].VariantID = &variantID
		}
		out[i].Snapshot.Images = append([]string(nil), item.Snapshot.Images...)
	}
	return out
}

func (s *Snapshot) itemIndex(itemID uuid.UUID) int {
	for i, item := range s.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Snapshot) savedIndex(itemID uuid.UUID) int {
	for i, item := range s.SavedForLater {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Snapshot) pairIndex(productID uuid.UUID, variantID *uuid.UUID) int {
	for i, item := range s.Items {
		if item.SamePair(productID, variantID) {
			return i
		}
	}
	return -1
}

// IsSellerSelected reports whether a seller participates in checkout. A nil
// selection means every seller is selected; an explicit empty one, none.
func (s *Snapshot) IsSellerSelected(sellerID uuid.UUID) bool {
	if s.SelectedSellerIDs == nil {
		return true
	}
	for _, selected := range s.SelectedSellerIDs {
		if selected == sellerID {
			return true
		}
	}
	return false
}

// IsItemSelected reports whether one cart line participates in checkout. An
// item is in only when both its seller and the item itself are selected;
// nil selections select everything.
func (s *Snapshot) IsItemSelected(item Item) bool {
	if !s.IsSellerSelected(item.Snapshot.SellerID) {
		return false
	}
	if s.SelectedItemIDs == nil {
		return true
	}
	for _, selected := range s.SelectedItemIDs {
		if selected == item.ID {
			return true
		}
	}
	return false
}

// SelectedItems returns the checkout-eligible subset of the cart.
func (s *Snapshot) SelectedItems() []Item {
	var selected []Item
	for _, item := range s.Items {
		if s.IsItemSelected(item) {
			selected = append(selected, item)
		}
	}
	return selected
}

// ItemsBySeller returns the active cart lines belonging to one seller.
func (s *Snapshot) ItemsBySeller(sellerID uuid.UUID) []Item {
	var items []Item
	for _, item := range s.Items {
		if item.Snapshot.SellerID == sellerID {
			items = append(items, item)
		}
	}
	return items
}

// SubtotalCents sums line totals over the provided items.
func SubtotalCents(items []Item) int {
	subtotal := 0
	for _, item := range items {
		subtotal += item.LineTotalCents()
	}
	return subtotal
}
