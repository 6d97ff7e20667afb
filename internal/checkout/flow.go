package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shoplyhq/shoply-backend/internal/cart"
	"github.com/shoplyhq/shoply-backend/internal/orders"
	"github.com/shoplyhq/shoply-backend/pkg/auth"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
	"github.com/shoplyhq/shoply-backend/pkg/metrics"
	"github.com/shoplyhq/shoply-backend/pkg/types"
)

// cartController is the slice of the cart store the flow drives.
type cartController interface {
	SelectedGroups(ctx context.Context, methods map[uuid.UUID]enums.ShippingMethod) ([]cart.SellerGroup, error)
	SelectedTotals(ctx context.Context, methods map[uuid.UUID]enums.ShippingMethod) (cart.Totals, error)
	ValidateSelected(ctx context.Context) ([]cart.ItemValidation, error)
	RemoveItemsForSellers(ctx context.Context, sellerIDs []uuid.UUID) error
}

// cartSource opens a fresh view of the owner's persisted cart. The flow
// re-opens on every review and submission so mutations made through the cart
// endpoints after checkout began are always visible and never overwritten by
// stale state captured at Begin.
type cartSource interface {
	OpenCart(ctx context.Context, owner auth.Identity) (cartController, error)
}

type orderPlacer interface {
	CreateOrders(ctx context.Context, input orders.SubmissionInput) ([]orders.PlacedOrder, error)
}

// Result is what a successful submission hands back to the caller.
type Result struct {
	Orders           []orders.PlacedOrder `json:"orders"`
	DeliveryEstimate time.Time            `json:"delivery_estimate"`
	Totals           cart.Totals          `json:"totals"`
}

// Flow is the bounded checkout state machine for one cart. Steps advance
// auth → address → payment → review → processing → confirmation; a failed
// submission lands in error, which recovers back to review. One submission
// may be in flight at a time.
type Flow struct {
	mu         sync.Mutex
	session    Session
	submitting bool

	owner   auth.Identity
	carts   cartSource
	orders  orderPlacer
	cfg     config.CheckoutConfig
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewFlow opens a checkout attempt over the owner's cart. Authenticated
// owners skip the auth step.
func NewFlow(owner auth.Identity, carts cartSource, orderSvc orderPlacer, cfg config.CheckoutConfig, m *metrics.CheckoutMetrics, logg *logger.Logger) (*Flow, error) {
	if owner.OwnerID == "" {
		return nil, fmt.Errorf("owner identity required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	step := enums.CheckoutStepAddress
	if owner.IsGuest {
		step = enums.CheckoutStepAuth
	}

	return &Flow{
		session: Session{
			Step:            step,
			OwnerID:         owner.OwnerID,
			ShippingMethods: map[uuid.UUID]enums.ShippingMethod{},
			Notes:           map[uuid.UUID]string{},
		},
		owner:   owner,
		carts:   carts,
		orders:  orderSvc,
		cfg:     cfg,
		metrics: m,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Session returns a copy of the current checkout state.
func (f *Flow) Session() Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session.clone()
}

func stepError(expected, actual enums.CheckoutStep) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("checkout is at the %s step, not %s", actual, expected))
}

// CompleteAuth advances past the auth step once the shopper authenticated
// or explicitly chose to continue as guest.
func (f *Flow) CompleteAuth() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session.Step != enums.CheckoutStepAuth {
		return stepError(enums.CheckoutStepAuth, f.session.Step)
	}
	f.session.Step = enums.CheckoutStepAddress
	return nil
}

// SubmitAddress records the shipping destination and advances to payment.
// Every required field must be present; the blocking message names the
// missing ones.
func (f *Flow) SubmitAddress(address types.ShippingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session.Step != enums.CheckoutStepAddress {
		return stepError(enums.CheckoutStepAddress, f.session.Step)
	}
	if missing := address.MissingFields(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("shipping address is missing required fields: %s", strings.Join(missing, ", "))).
			WithDetails(map[string]any{"missing_fields": missing})
	}
	f.session.Address = address
	f.session.Step = enums.CheckoutStepPayment
	return nil
}

// SelectPayment records the payment method and advances to review.
func (f *Flow) SelectPayment(method enums.PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session.Step != enums.CheckoutStepPayment {
		return stepError(enums.CheckoutStepPayment, f.session.Step)
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "a payment method must be selected")
	}
	f.session.PaymentMethod = method
	f.session.Step = enums.CheckoutStepReview
	return nil
}

// SetShippingMethod picks one seller group's shipping tier at review.
func (f *Flow) SetShippingMethod(sellerID uuid.UUID, method enums.ShippingMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session.Step != enums.CheckoutStepReview {
		return stepError(enums.CheckoutStepReview, f.session.Step)
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown shipping method %q", method))
	}
	f.session.ShippingMethods[sellerID] = method
	return nil
}

// SetNote attaches a per-seller note at review.
func (f *Flow) SetNote(sellerID uuid.UUID, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session.Step != enums.CheckoutStepReview {
		return stepError(enums.CheckoutStepReview, f.session.Step)
	}
	f.session.Notes[sellerID] = note
	return nil
}

// AcceptTerms flips the terms-acceptance flag at review.
func (f *Flow) AcceptTerms(accepted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session.Step != enums.CheckoutStepReview {
		return stepError(enums.CheckoutStepReview, f.session.Step)
	}
	f.session.AcceptedTerms = accepted
	return nil
}

// Review re-derives the selected groups and totals for display. Totals are
// never frozen; every call re-opens the cart and recomputes from its current
// persisted state.
func (f *Flow) Review(ctx context.Context) ([]cart.SellerGroup, cart.Totals, error) {
	f.mu.Lock()
	methods := cloneMethods(f.session.ShippingMethods)
	f.mu.Unlock()

	cartStore, err := f.carts.OpenCart(ctx, f.owner)
	if err != nil {
		return nil, cart.Totals{}, err
	}
	groups, err := cartStore.SelectedGroups(ctx, methods)
	if err != nil {
		return nil, cart.Totals{}, err
	}
	totals, err := cartStore.SelectedTotals(ctx, methods)
	if err != nil {
		return nil, cart.Totals{}, err
	}
	return groups, totals, nil
}

// Recover acknowledges a failed submission and returns the flow to review.
func (f *Flow) Recover() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session.Step != enums.CheckoutStepError {
		return stepError(enums.CheckoutStepError, f.session.Step)
	}
	f.session.Step = enums.CheckoutStepReview
	return nil
}

// PlaceOrder submits every selected seller group as one atomic call and, on
// success, clears the fulfilled items from the cart. Repeated triggers
// while a submission is in flight are rejected without side effects.
func (f *Flow) PlaceOrder(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "order submission already in progress")
	}
	if f.session.Step != enums.CheckoutStepReview {
		step := f.session.Step
		f.mu.Unlock()
		return nil, stepError(enums.CheckoutStepReview, step)
	}
	if !f.session.AcceptedTerms {
		f.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "the terms of sale must be accepted before placing the order")
	}
	if !f.session.PaymentMethod.IsValid() {
		f.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a payment method must be selected")
	}
	// Defensive re-check at the submission boundary, independent of the
	// address step's own validation.
	if strings.TrimSpace(f.session.Address.State) == "" {
		f.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is missing required fields: state").
			WithDetails(map[string]any{"missing_fields": []string{"state"}})
	}

	session := f.session.clone()
	f.mu.Unlock()

	// A fresh cart view for the whole submission: the selected groups, the
	// final validation, and the post-confirmation cleanup all read and write
	// the same just-loaded state.
	cartStore, err := f.carts.OpenCart(ctx, f.owner)
	if err != nil {
		return nil, err
	}

	// Processing is never entered with nothing to submit.
	groups, err := cartStore.SelectedGroups(ctx, session.ShippingMethods)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no seller groups are selected for checkout")
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "order submission already in progress")
	}
	f.submitting = true
	f.session.Step = enums.CheckoutStepProcessing
	f.mu.Unlock()

	started := f.now()
	result, err := f.submit(ctx, cartStore, session, groups)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false

	if err != nil {
		f.session.Step = enums.CheckoutStepError
		f.session.LastError = errorMessage(err)
		f.metrics.ObserveSubmission("failure", f.now().Sub(started))
		f.metrics.IncFailure(failureReason(err))
		return nil, err
	}

	f.session.Step = enums.CheckoutStepConfirmation
	f.session.LastError = ""
	f.session.PlacedOrders = result.Orders
	estimate := result.DeliveryEstimate
	f.session.DeliveryEstimate = &estimate
	f.metrics.ObserveSubmission("success", f.now().Sub(started))
	f.metrics.IncOrdersPlaced(session.PaymentMethod.String(), len(result.Orders))
	return result, nil
}

func (f *Flow) submit(ctx context.Context, cartStore cartController, session Session, groups []cart.SellerGroup) (*Result, error) {
	// A group whose seller is unavailable (or whose lookup failed) is never
	// submitted; the shopper must deselect or retry.
	var unavailable []string
	for _, group := range groups {
		if !group.IsAvailable {
			unavailable = append(unavailable, group.SellerID.String())
		}
	}
	if len(unavailable) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"some sellers are currently unavailable; remove or deselect their items to continue").
			WithDetails(map[string]any{"unavailable_seller_ids": unavailable})
	}

	// Final reconciliation against the catalog before money moves.
	verdicts, err := cartStore.ValidateSelected(ctx)
	if err != nil {
		return nil, err
	}
	if cart.HasBlocking(verdicts) {
		blocked := cart.BlockingSellerIDs(verdicts)
		sellerIDs := make([]string, 0, len(blocked))
		for sellerID := range blocked {
			sellerIDs = append(sellerIDs, sellerID.String())
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"some items are no longer available at the requested quantity; review your cart").
			WithDetails(map[string]any{"blocked_seller_ids": sellerIDs})
	}

	totals, err := cartStore.SelectedTotals(ctx, session.ShippingMethods)
	if err != nil {
		return nil, err
	}

	input := orders.SubmissionInput{
		OwnerID:       session.OwnerID,
		Address:       session.Address,
		PaymentMethod: session.PaymentMethod,
	}
	for _, group := range groups {
		groupInput := orders.GroupInput{
			SellerID:       group.SellerID,
			ShippingMethod: group.ShippingMethod,
			SubtotalCents:  group.SubtotalCents,
			DiscountCents:  group.DiscountCents,
			TaxCents:       group.TaxCents,
			ShippingCents:  group.ShippingCents,
			TotalCents:     group.TotalCents,
		}
		if note, ok := session.Notes[group.SellerID]; ok && note != "" {
			groupInput.Note = &note
		}
		for _, item := range group.Items {
			groupInput.Items = append(groupInput.Items, orders.LineInput{
				ProductID:      item.ProductID,
				VariantID:      item.VariantID,
				Title:          item.Snapshot.Title,
				UnitPriceCents: item.Snapshot.PriceCents,
				Quantity:       item.Quantity,
			})
		}
		input.Groups = append(input.Groups, groupInput)
	}

	// Single atomic submission carrying all groups. Cart mutation happens
	// only after this confirms.
	placed, err := f.orders.CreateOrders(ctx, input)
	if err != nil {
		return nil, err
	}

	submittedSellers := make([]uuid.UUID, 0, len(groups))
	for _, group := range groups {
		submittedSellers = append(submittedSellers, group.SellerID)
	}
	if err := cartStore.RemoveItemsForSellers(ctx, submittedSellers); err != nil {
		// The orders exist; a failed cleanup must not fail the checkout.
		f.logg.Error(ctx, "failed to clear fulfilled items from cart", err)
	}

	return &Result{
		Orders:           placed,
		DeliveryEstimate: f.deliveryEstimate(groups),
		Totals:           totals,
	}, nil
}

// deliveryEstimate is today plus the slowest submitted group's lead time.
func (f *Flow) deliveryEstimate(groups []cart.SellerGroup) time.Time {
	tiers := f.cfg.Tiers()
	maxLead := 0
	for _, group := range groups {
		if lead := tiers[group.ShippingMethod.String()].LeadTimeDays; lead > maxLead {
			maxLead = lead
		}
	}
	return f.now().AddDate(0, 0, maxLead)
}

func cloneMethods(methods map[uuid.UUID]enums.ShippingMethod) map[uuid.UUID]enums.ShippingMethod {
	copied := make(map[uuid.UUID]enums.ShippingMethod, len(methods))
	for sellerID, method := range methods {
		copied[sellerID] = method
	}
	return copied
}

func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

func failureReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return "unknown"
}
