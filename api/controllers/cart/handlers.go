package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shoplyhq/shoply-backend/api/middleware"
	"github.com/shoplyhq/shoply-backend/api/responses"
	"github.com/shoplyhq/shoply-backend/api/validators"
	cartsvc "github.com/shoplyhq/shoply-backend/internal/cart"
	"github.com/shoplyhq/shoply-backend/internal/catalog"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
)

func openStore(r *http.Request, factory *cartsvc.Factory) (*cartsvc.Store, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing shopper identity")
	}
	return factory.Open(r.Context(), identity)
}

func urlUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func viewOf(ctx context.Context, store *cartsvc.Store) (*cartView, error) {
	groups, err := store.SellerGroups(ctx, nil)
	if err != nil {
		return nil, err
	}
	totals, err := store.SelectedTotals(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &cartView{Cart: store.GetSnapshot(), Groups: groups, Totals: totals}, nil
}

func writeView(w http.ResponseWriter, r *http.Request, logg *logger.Logger, store *cartsvc.Store) {
	view, err := viewOf(r.Context(), store)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, view)
}

// CartFetch returns the shopper's cart with derived groups and totals.
func CartFetch(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartAddItem resolves the product in the live catalog and adds it to the
// cart, merging quantities when the (product, variant) pair already exists.
func CartAddItem(factory *cartsvc.Factory, catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil || catalogSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := catalogSvc.GetProduct(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := store.AddItem(r.Context(), product, payload.VariantID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartUpdateQuantity sets the quantity on an existing cart line.
func CartUpdateQuantity(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		itemID, err := urlUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.UpdateQuantity(r.Context(), itemID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartRemoveItem deletes one cart line.
func CartRemoveItem(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		itemID, err := urlUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.RemoveItem(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartRemoveSeller drops every cart line belonging to one seller.
func CartRemoveSeller(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		sellerID, err := urlUUID(r, "sellerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.RemoveItemsBySeller(r.Context(), sellerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartSaveForLater parks a cart line outside the purchasable set.
func CartSaveForLater(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		itemID, err := urlUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.SaveForLater(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartMoveToCart returns a saved-for-later line to the active cart.
func CartMoveToCart(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		itemID, err := urlUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.MoveToCart(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartSelectItem toggles one cart line in or out of checkout.
func CartSelectItem(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		itemID, err := urlUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.SelectItem(r.Context(), itemID, payload.Selected); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartSelectSeller toggles a whole seller group in or out of checkout.
func CartSelectSeller(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		sellerID, err := urlUUID(r, "sellerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.SelectSeller(r.Context(), sellerID, payload.Selected); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartSelectAll restores the default everything-selected state.
func CartSelectAll(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.SelectAll(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartApplyCoupon applies a coupon globally or to one seller group.
func CartApplyCoupon(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload applyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := store.ApplyCoupon(r.Context(), payload.Code, payload.SellerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartAutoApplyCoupon tries the configured promo codes in order and applies
// the first one the cart qualifies for. A cart that qualifies for none is
// not an error.
func CartAutoApplyCoupon(factory *cartsvc.Factory, cfg config.CartConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := store.AutoApplyCoupon(r.Context(), cfg.AutoApplyCodes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartRemoveCoupon removes the global coupon, or one seller's coupon when
// the seller_id query parameter is present.
func CartRemoveCoupon(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var sellerID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("seller_id")); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller_id"))
				return
			}
			sellerID = &parsed
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.RemoveCoupon(r.Context(), sellerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeView(w, r, logg, store)
	}
}

// CartValidate reconciles the cart against the live catalog.
func CartValidate(factory *cartsvc.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if factory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		store, err := openStore(r, factory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := store.ValidateCart(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, validationView{
			Results:  results,
			Blocking: cartsvc.HasBlocking(results),
		})
	}
}
