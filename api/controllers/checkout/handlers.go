package checkout

import (
	"net/http"

	"github.com/shoplyhq/shoply-backend/api/middleware"
	"github.com/shoplyhq/shoply-backend/api/responses"
	"github.com/shoplyhq/shoply-backend/api/validators"
	"github.com/shoplyhq/shoply-backend/internal/cart"
	checkoutsvc "github.com/shoplyhq/shoply-backend/internal/checkout"
	"github.com/shoplyhq/shoply-backend/pkg/auth"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
)

type reviewView struct {
	Session checkoutsvc.Session `json:"session"`
	Groups  []cart.SellerGroup  `json:"groups"`
	Totals  cart.Totals         `json:"totals"`
}

func identityOf(r *http.Request) (auth.Identity, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return auth.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing shopper identity")
	}
	return identity, nil
}

func flowOf(r *http.Request, manager *checkoutsvc.Manager) (*checkoutsvc.Flow, error) {
	identity, err := identityOf(r)
	if err != nil {
		return nil, err
	}
	return manager.Get(identity)
}

// CheckoutBegin opens a fresh checkout attempt over the current cart,
// replacing any in-progress attempt for the same shopper.
func CheckoutBegin(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		identity, err := identityOf(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flow, err := manager.Begin(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, flow.Session())
	}
}

// CheckoutSession returns the state of the in-progress attempt.
func CheckoutSession(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flow.Session())
	}
}

// CheckoutAbandon drops the in-progress attempt. The cart is untouched.
func CheckoutAbandon(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		identity, err := identityOf(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manager.Close(identity)
		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}

// CheckoutCompleteAuth advances a guest past the auth gate after they have
// signed in or chosen to continue as guest.
func CheckoutCompleteAuth(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := flow.CompleteAuth(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flow.Session())
	}
}

// CheckoutSubmitAddress records the shipping destination.
func CheckoutSubmitAddress(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := flow.SubmitAddress(payload.toAddress()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flow.Session())
	}
}

// CheckoutSelectPayment records the payment method.
func CheckoutSelectPayment(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := flow.SelectPayment(enums.PaymentMethod(payload.Method)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flow.Session())
	}
}

// CheckoutSetShippingMethod picks one seller group's shipping tier.
func CheckoutSetShippingMethod(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		var payload shippingMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := flow.SetShippingMethod(payload.SellerID, enums.ShippingMethod(payload.Method)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flow.Session())
	}
}

// CheckoutSetNote attaches a note to one seller group.
func CheckoutSetNote(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		var payload noteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := flow.SetNote(payload.SellerID, payload.Note); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flow.Session())
	}
}

// CheckoutAcceptTerms records the terms checkbox; only valid at review.
func CheckoutAcceptTerms(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		var payload termsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := flow.AcceptTerms(payload.Accepted); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flow.Session())
	}
}

// CheckoutReview recomputes the selected groups and totals from live state.
func CheckoutReview(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groups, totals, err := flow.Review(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reviewView{
			Session: flow.Session(),
			Groups:  groups,
			Totals:  totals,
		})
	}
}

// CheckoutPlaceOrder runs the submission: validate, split per seller, create
// orders atomically, clear the purchased items.
func CheckoutPlaceOrder(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := flow.PlaceOrder(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutRecover moves a failed attempt back to review for another try.
func CheckoutRecover(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		flow, err := flowOf(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := flow.Recover(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flow.Session())
	}
}
