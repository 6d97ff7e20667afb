package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shoplyhq/shoply-backend/internal/catalog"
	"github.com/shoplyhq/shoply-backend/internal/coupons"
	"github.com/shoplyhq/shoply-backend/pkg/auth"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
)

// Dependencies are the collaborators a cart store is constructed with.
type Dependencies struct {
	Engine     coupons.Engine
	Aggregator *Aggregator
	Validator  *Validator
	Snapshots  SnapshotStore
	Logger     *logger.Logger
}

func (d Dependencies) validate() error {
	if d.Engine == nil {
		return fmt.Errorf("coupon engine required")
	}
	if d.Aggregator == nil {
		return fmt.Errorf("aggregator required")
	}
	if d.Validator == nil {
		return fmt.Errorf("validator required")
	}
	if d.Snapshots == nil {
		return fmt.Errorf("snapshot store required")
	}
	if d.Logger == nil {
		return fmt.Errorf("logger required")
	}
	return nil
}

// Store owns one owner's cart snapshot. Every mutation runs on a working
// copy, persists it, and only then replaces the confirmed snapshot; a failed
// persistence write leaves the confirmed state untouched. Operations are
// serialized per owner.
type Store struct {
	mu    sync.Mutex
	owner auth.Identity
	snap  *Snapshot

	engine     coupons.Engine
	aggregator *Aggregator
	validator  *Validator
	snapshots  SnapshotStore
	logg       *logger.Logger
	now        func() time.Time
}

// NewStore loads (or initializes) the owner's persisted snapshot and wraps
// it in a store instance scoped to the calling context.
func NewStore(ctx context.Context, owner auth.Identity, deps Dependencies) (*Store, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if owner.OwnerID == "" {
		return nil, fmt.Errorf("owner identity required")
	}

	snapshot, err := deps.Snapshots.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	return &Store{
		owner:      owner,
		snap:       snapshot,
		engine:     deps.Engine,
		aggregator: deps.Aggregator,
		validator:  deps.Validator,
		snapshots:  deps.Snapshots,
		logg:       deps.Logger,
		now:        time.Now,
	}, nil
}

// Owner returns the identity the store is scoped to.
func (s *Store) Owner() auth.Identity {
	return s.owner
}

// GetSnapshot returns a copy of the confirmed cart state.
func (s *Store) GetSnapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// commit persists the working copy and promotes it to the confirmed
// snapshot. On persistence failure the confirmed snapshot is left as-is.
func (s *Store) commit(ctx context.Context, working *Snapshot) error {
	working.UpdatedAt = s.now()
	if err := s.snapshots.Save(ctx, s.owner, working); err != nil {
		s.logg.Error(ctx, "cart persistence failed, rolling back mutation", err)
		return err
	}
	s.snap = working
	return nil
}

// AddItem puts a (product, variant) pair in the cart at the given quantity,
// merging into the existing line when the pair is already present.
func (s *Store) AddItem(ctx context.Context, product *catalog.ProductDetail, variantID *uuid.UUID, quantity int) (*Item, error) {
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if !product.IsPurchasable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("%s is not available for purchase", product.Title))
	}

	price, err := product.EffectivePriceCents(variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown product variant")
	}
	stock, err := product.EffectiveStock(variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown product variant")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	now := s.now()

	if idx := working.pairIndex(product.ID, variantID); idx >= 0 {
		working.Items[idx].Quantity += quantity
		working.Items[idx].UpdatedAt = now
		if err := s.commit(ctx, working); err != nil {
			return nil, err
		}
		item := working.Items[idx]
		return &item, nil
	}

	var variantTitle string
	if variantID != nil {
		for _, variant := range product.Variants {
			if variant.ID == *variantID {
				variantTitle = variant.Title
			}
		}
	}

	item := Item{
		ID:        uuid.New(),
		OwnerID:   s.owner.OwnerID,
		ProductID: product.ID,
		VariantID: variantID,
		Quantity:  quantity,
		Snapshot: ProductSnapshot{
			SellerID:      product.SellerID,
			Title:         product.Title,
			VariantTitle:  variantTitle,
			PriceCents:    price,
			StockQuantity: stock,
			Images:        product.Images,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	working.Items = append(working.Items, item)
	if err := s.commit(ctx, working); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateQuantity sets a cart line's quantity in place.
func (s *Store) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	idx := working.itemIndex(itemID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	working.Items[idx].Quantity = quantity
	working.Items[idx].UpdatedAt = s.now()
	return s.commit(ctx, working)
}

// RemoveItem deletes one cart line.
func (s *Store) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	idx := working.itemIndex(itemID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	working.Items = append(working.Items[:idx], working.Items[idx+1:]...)
	pruneAfterRemoval(working)
	return s.commit(ctx, working)
}

// RemoveItemsBySeller deletes every cart line belonging to one seller.
// Removing for a seller with no lines is a no-op.
func (s *Store) RemoveItemsBySeller(ctx context.Context, sellerID uuid.UUID) error {
	return s.RemoveItemsForSellers(ctx, []uuid.UUID{sellerID})
}

// RemoveItemsForSellers deletes the cart lines of the given sellers in one
// mutation. Idempotent: already-absent items are skipped silently. Checkout
// uses this to clear fulfilled groups after order confirmation.
func (s *Store) RemoveItemsForSellers(ctx context.Context, sellerIDs []uuid.UUID) error {
	if len(sellerIDs) == 0 {
		return nil
	}
	drop := map[uuid.UUID]struct{}{}
	for _, sellerID := range sellerIDs {
		drop[sellerID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	kept := working.Items[:0]
	for _, item := range working.Items {
		if _, gone := drop[item.Snapshot.SellerID]; !gone {
			kept = append(kept, item)
		}
	}
	working.Items = kept
	for sellerID := range drop {
		delete(working.SellerCoupons, sellerID)
	}
	pruneAfterRemoval(working)
	return s.commit(ctx, working)
}

// pruneAfterRemoval drops selection entries and seller coupons that no
// longer reference a live cart line. An explicit selection that prunes to
// empty stays an empty list: sellers the shopper deselected are not
// re-selected just because the selected ones were removed.
func pruneAfterRemoval(working *Snapshot) {
	liveItems := map[uuid.UUID]struct{}{}
	liveSellers := map[uuid.UUID]struct{}{}
	for _, item := range working.Items {
		liveItems[item.ID] = struct{}{}
		liveSellers[item.Snapshot.SellerID] = struct{}{}
	}

	selectedItems := working.SelectedItemIDs[:0]
	for _, id := range working.SelectedItemIDs {
		if _, ok := liveItems[id]; ok {
			selectedItems = append(selectedItems, id)
		}
	}
	working.SelectedItemIDs = selectedItems

	selectedSellers := working.SelectedSellerIDs[:0]
	for _, id := range working.SelectedSellerIDs {
		if _, ok := liveSellers[id]; ok {
			selectedSellers = append(selectedSellers, id)
		}
	}
	working.SelectedSellerIDs = selectedSellers

	for sellerID := range working.SellerCoupons {
		if _, ok := liveSellers[sellerID]; !ok {
			delete(working.SellerCoupons, sellerID)
		}
	}
}

// SaveForLater parks a cart line aside; it keeps its identity but is
// excluded from totals and checkout.
func (s *Store) SaveForLater(ctx context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	idx := working.itemIndex(itemID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	item := working.Items[idx]
	item.UpdatedAt = s.now()
	working.Items = append(working.Items[:idx], working.Items[idx+1:]...)
	working.SavedForLater = append(working.SavedForLater, item)
	pruneAfterRemoval(working)
	return s.commit(ctx, working)
}

// MoveToCart restores a saved-for-later line into the active cart, merging
// quantities when the same pair was re-added in the meantime.
func (s *Store) MoveToCart(ctx context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	idx := working.savedIndex(itemID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "saved item not found")
	}
	item := working.SavedForLater[idx]
	working.SavedForLater = append(working.SavedForLater[:idx], working.SavedForLater[idx+1:]...)

	now := s.now()
	if existing := working.pairIndex(item.ProductID, item.VariantID); existing >= 0 {
		working.Items[existing].Quantity += item.Quantity
		working.Items[existing].UpdatedAt = now
	} else {
		item.UpdatedAt = now
		working.Items = append(working.Items, item)
	}
	return s.commit(ctx, working)
}

// SelectItem toggles one cart line's checkout inclusion. A nil selection
// list means everything is selected, so the first deselection materializes
// the full list before removing the target; deselecting the last entry
// leaves an explicit empty list, not the nil everything-selected default.
func (s *Store) SelectItem(ctx context.Context, itemID uuid.UUID, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	if working.itemIndex(itemID) < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if selected {
		if working.SelectedItemIDs == nil {
			return nil
		}
		working.SelectedItemIDs = appendUnique(working.SelectedItemIDs, itemID)
		if len(working.SelectedItemIDs) == len(working.Items) {
			working.SelectedItemIDs = nil
		}
	} else {
		if working.SelectedItemIDs == nil {
			working.SelectedItemIDs = []uuid.UUID{}
			for _, item := range working.Items {
				working.SelectedItemIDs = append(working.SelectedItemIDs, item.ID)
			}
		}
		working.SelectedItemIDs = removeID(working.SelectedItemIDs, itemID)
	}
	return s.commit(ctx, working)
}

// SelectSeller toggles a whole seller group's checkout inclusion.
func (s *Store) SelectSeller(ctx context.Context, sellerID uuid.UUID, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	sellerIDs := activeSellerIDs(working)
	if _, ok := sellerIDs[sellerID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no cart items for this seller")
	}

	if selected {
		if working.SelectedSellerIDs == nil {
			return nil
		}
		working.SelectedSellerIDs = appendUnique(working.SelectedSellerIDs, sellerID)
		if len(working.SelectedSellerIDs) == len(sellerIDs) {
			working.SelectedSellerIDs = nil
		}
	} else {
		if working.SelectedSellerIDs == nil {
			working.SelectedSellerIDs = []uuid.UUID{}
			for id := range sellerIDs {
				working.SelectedSellerIDs = append(working.SelectedSellerIDs, id)
			}
		}
		working.SelectedSellerIDs = removeID(working.SelectedSellerIDs, sellerID)
	}
	return s.commit(ctx, working)
}

// SelectAll resets the selection filters to the default everything-selected
// state.
func (s *Store) SelectAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	working.SelectedItemIDs = nil
	working.SelectedSellerIDs = nil
	return s.commit(ctx, working)
}

func activeSellerIDs(snapshot *Snapshot) map[uuid.UUID]struct{} {
	sellerIDs := map[uuid.UUID]struct{}{}
	for _, item := range snapshot.Items {
		if item.Snapshot.SellerID != uuid.Nil {
			sellerIDs[item.Snapshot.SellerID] = struct{}{}
		}
	}
	return sellerIDs
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return kept
}

// ApplyCoupon validates a code against the scope's current subtotal and
// stores the resulting discount. A rejected code leaves any previously
// applied coupon untouched.
func (s *Store) ApplyCoupon(ctx context.Context, code string, sellerID *uuid.UUID) (*AppliedCoupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()

	var subtotal int
	if sellerID != nil {
		items := working.ItemsBySeller(*sellerID)
		if len(items) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "no cart items for this seller")
		}
		subtotal = SubtotalCents(items)
	} else {
		subtotal = globalCouponSubtotal(working)
	}

	applied, err := s.engine.Apply(ctx, code, subtotal)
	if err != nil {
		return nil, err
	}

	coupon := AppliedCoupon{Code: applied.Code, DiscountCents: applied.DiscountCents}
	if sellerID != nil {
		working.SellerCoupons[*sellerID] = coupon
	} else {
		working.GlobalCoupon = &coupon
	}
	if err := s.commit(ctx, working); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// AutoApplyCoupon walks the configured candidate codes and applies the first
// one that validates, if no global coupon is set yet. All candidates failing
// is not an error.
func (s *Store) AutoApplyCoupon(ctx context.Context, codes []string) (*AppliedCoupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	if working.GlobalCoupon != nil {
		coupon := *working.GlobalCoupon
		return &coupon, nil
	}

	applied, err := s.engine.ApplyFirst(ctx, codes, globalCouponSubtotal(working))
	if err != nil {
		return nil, err
	}
	if applied == nil {
		return nil, nil
	}

	coupon := AppliedCoupon{Code: applied.Code, DiscountCents: applied.DiscountCents}
	working.GlobalCoupon = &coupon
	if err := s.commit(ctx, working); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// globalCouponSubtotal is the selected subtotal net of per-seller discounts,
// the base a global coupon is computed against.
func globalCouponSubtotal(snapshot *Snapshot) int {
	subtotal := 0
	bySeller := map[uuid.UUID]int{}
	for _, item := range snapshot.SelectedItems() {
		subtotal += item.LineTotalCents()
		bySeller[item.Snapshot.SellerID] += item.LineTotalCents()
	}
	for sellerID, coupon := range snapshot.SellerCoupons {
		discount := coupon.DiscountCents
		if discount > bySeller[sellerID] {
			discount = bySeller[sellerID]
		}
		subtotal -= discount
	}
	if subtotal < 0 {
		subtotal = 0
	}
	return subtotal
}

// RemoveCoupon clears the coupon for the given scope with no other effect.
func (s *Store) RemoveCoupon(ctx context.Context, sellerID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.snap.Clone()
	if sellerID != nil {
		delete(working.SellerCoupons, *sellerID)
	} else {
		working.GlobalCoupon = nil
	}
	return s.commit(ctx, working)
}

// SellerGroups derives the per-seller view of the full cart.
func (s *Store) SellerGroups(ctx context.Context, methods map[uuid.UUID]enums.ShippingMethod) ([]SellerGroup, error) {
	return s.aggregator.Aggregate(ctx, s.GetSnapshot(), methods)
}

// SelectedGroups derives the per-seller view of the checkout-eligible
// subset.
func (s *Store) SelectedGroups(ctx context.Context, methods map[uuid.UUID]enums.ShippingMethod) ([]SellerGroup, error) {
	return s.aggregator.AggregateSelected(ctx, s.GetSnapshot(), methods)
}

// SelectedTotals derives the overall figures across the selected groups.
func (s *Store) SelectedTotals(ctx context.Context, methods map[uuid.UUID]enums.ShippingMethod) (Totals, error) {
	return s.aggregator.SelectedTotals(ctx, s.GetSnapshot(), methods)
}

// ValidateCart reconciles the active cart lines against the catalog.
func (s *Store) ValidateCart(ctx context.Context) ([]ItemValidation, error) {
	return s.validator.Validate(ctx, s.GetSnapshot().Items)
}

// ValidateSelected reconciles only the checkout-eligible subset.
func (s *Store) ValidateSelected(ctx context.Context) ([]ItemValidation, error) {
	return s.validator.Validate(ctx, s.GetSnapshot().SelectedItems())
}
