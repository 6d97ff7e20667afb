package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/shoplyhq/shoply-backend/internal/cart"
	"github.com/shoplyhq/shoply-backend/pkg/auth"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
	"github.com/shoplyhq/shoply-backend/pkg/metrics"
)

type cartOpener interface {
	Open(ctx context.Context, owner auth.Identity) (*cart.Store, error)
}

// storeSource adapts the factory-backed opener to the flow's cart view, so
// every flow operation reads the owner's currently persisted cart.
type storeSource struct {
	carts cartOpener
}

func (s storeSource) OpenCart(ctx context.Context, owner auth.Identity) (cartController, error) {
	return s.carts.Open(ctx, owner)
}

// Manager tracks at most one live checkout flow per owner. Flows are
// in-memory only: an abandoned flow is simply replaced by the next Begin,
// and nothing in it outlives the process. The cart snapshot, not the flow,
// is the durable state.
type Manager struct {
	mu    sync.Mutex
	flows map[string]*Flow

	carts   cartOpener
	orders  orderPlacer
	cfg     config.CheckoutConfig
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
}

// NewManager builds the per-owner flow registry.
func NewManager(carts cartOpener, orderSvc orderPlacer, cfg config.CheckoutConfig, m *metrics.CheckoutMetrics, logg *logger.Logger) (*Manager, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart opener required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Manager{
		flows:   map[string]*Flow{},
		carts:   carts,
		orders:  orderSvc,
		cfg:     cfg,
		metrics: m,
		logg:    logg,
	}, nil
}

// Begin opens a fresh checkout attempt over the owner's current cart,
// replacing any previous attempt.
func (m *Manager) Begin(ctx context.Context, owner auth.Identity) (*Flow, error) {
	// Surface an unreachable cart store here rather than mid-flow.
	if _, err := m.carts.Open(ctx, owner); err != nil {
		return nil, err
	}
	flow, err := NewFlow(owner, storeSource{carts: m.carts}, m.orders, m.cfg, m.metrics, m.logg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.flows[owner.OwnerID] = flow
	m.mu.Unlock()

	m.logg.Info(m.logg.WithOwnerID(ctx, owner.OwnerID), "checkout flow opened")
	return flow, nil
}

// Get returns the owner's live flow.
func (m *Manager) Get(owner auth.Identity) (*Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	flow, ok := m.flows[owner.OwnerID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	return flow, nil
}

// Close drops the owner's flow, if any. Safe to call twice.
func (m *Manager) Close(owner auth.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, owner.OwnerID)
}
