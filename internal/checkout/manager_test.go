package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplyhq/shoply-backend/internal/cart"
	"github.com/shoplyhq/shoply-backend/internal/catalog"
	"github.com/shoplyhq/shoply-backend/internal/coupons"
	"github.com/shoplyhq/shoply-backend/internal/orders"
	"github.com/shoplyhq/shoply-backend/internal/sellers"
	"github.com/shoplyhq/shoply-backend/pkg/auth"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
)

type memKV struct {
	data map[string]string
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memKV) CartKey(ownerID string) string {
	return "shoply:cart:" + ownerID
}

type noCoupons struct{}

func (noCoupons) Apply(ctx context.Context, code string, subtotalCents int) (*coupons.Applied, error) {
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is not valid")
}

func (noCoupons) ApplyFirst(ctx context.Context, codes []string, subtotalCents int) (*coupons.Applied, error) {
	return nil, nil
}

type noSellers struct{}

func (noSellers) GetSeller(ctx context.Context, sellerID uuid.UUID) (*sellers.Profile, error) {
	return &sellers.Profile{ID: sellerID, Name: "Seller", IsAvailable: true}, nil
}

type noCatalog struct{}

func (noCatalog) GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductDetail, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type mapCatalog struct {
	products map[uuid.UUID]*catalog.ProductDetail
}

func (m *mapCatalog) GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductDetail, error) {
	if product, ok := m.products[productID]; ok {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type productCatalog interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductDetail, error)
}

func newManagerFixture(t *testing.T) *Manager {
	t.Helper()
	manager, _ := newCheckoutFixture(t, noCatalog{}, &stubOrders{})
	return manager
}

func newCheckoutFixture(t *testing.T, catalogStub productCatalog, orderStub *stubOrders) (*Manager, *cart.Factory) {
	t.Helper()

	logg := testLogger()
	aggregator, err := cart.NewAggregator(noSellers{}, checkoutConfig(), logg)
	require.NoError(t, err)
	validator, err := cart.NewValidator(catalogStub)
	require.NoError(t, err)
	snapshots, err := cart.NewSnapshotStore(&memKV{data: map[string]string{}}, config.CartConfig{
		SnapshotTTL:      time.Hour,
		GuestSnapshotTTL: time.Minute,
	})
	require.NoError(t, err)
	factory, err := cart.NewFactory(cart.Dependencies{
		Engine:     noCoupons{},
		Aggregator: aggregator,
		Validator:  validator,
		Snapshots:  snapshots,
		Logger:     logg,
	})
	require.NoError(t, err)

	manager, err := NewManager(factory, orderStub, checkoutConfig(), nil, logg)
	require.NoError(t, err)
	return manager, factory
}

func TestManagerBeginAndGet(t *testing.T) {
	manager := newManagerFixture(t)
	owner := auth.UserIdentity(uuid.New())

	_, err := manager.Get(owner)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	flow, err := manager.Begin(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepAddress, flow.Session().Step)

	got, err := manager.Get(owner)
	require.NoError(t, err)
	assert.Same(t, flow, got)
}

func TestManagerBeginReplacesExistingFlow(t *testing.T) {
	manager := newManagerFixture(t)
	owner := auth.GuestIdentity("abandoner")

	first, err := manager.Begin(context.Background(), owner)
	require.NoError(t, err)
	require.NoError(t, first.CompleteAuth())

	second, err := manager.Begin(context.Background(), owner)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, enums.CheckoutStepAuth, second.Session().Step)
}

func TestPlaceOrderKeepsItemsAddedAfterBegin(t *testing.T) {
	sellerA := uuid.New()
	sellerB := uuid.New()
	productA := &catalog.ProductDetail{
		ID: uuid.New(), SellerID: sellerA, Title: "Mug",
		PriceCents: 1500, StockQuantity: 10, Status: enums.ProductStatusActive,
	}
	productB := &catalog.ProductDetail{
		ID: uuid.New(), SellerID: sellerB, Title: "Poster",
		PriceCents: 2000, StockQuantity: 5, Status: enums.ProductStatusActive,
	}
	catalogStub := &mapCatalog{products: map[uuid.UUID]*catalog.ProductDetail{
		productA.ID: productA,
		productB.ID: productB,
	}}
	orderStub := &stubOrders{placed: []orders.PlacedOrder{
		{OrderID: uuid.New(), OrderNumber: "SO-1", SellerID: sellerA},
	}}

	manager, factory := newCheckoutFixture(t, catalogStub, orderStub)
	owner := auth.UserIdentity(uuid.New())
	ctx := context.Background()

	seed, err := factory.Open(ctx, owner)
	require.NoError(t, err)
	_, err = seed.AddItem(ctx, productA, nil, 1)
	require.NoError(t, err)

	flow, err := manager.Begin(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, flow.SubmitAddress(completeAddress()))
	require.NoError(t, flow.SelectPayment(enums.PaymentMethodCard))
	require.NoError(t, flow.AcceptTerms(true))

	// the shopper keeps using the cart endpoints mid-checkout, each request
	// opening its own store
	interim, err := factory.Open(ctx, owner)
	require.NoError(t, err)
	_, err = interim.AddItem(ctx, productB, nil, 2)
	require.NoError(t, err)

	// review reflects the mutation immediately
	groups, _, err := flow.Review(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// only seller A goes through checkout
	require.NoError(t, interim.SelectSeller(ctx, sellerB, false))

	result, err := flow.PlaceOrder(ctx)
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)

	// seller B's never-submitted item survives in the persisted cart
	after, err := factory.Open(ctx, owner)
	require.NoError(t, err)
	snapshot := after.GetSnapshot()
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, productB.ID, snapshot.Items[0].ProductID)
	assert.Equal(t, 2, snapshot.Items[0].Quantity)
}

func TestManagerClose(t *testing.T) {
	manager := newManagerFixture(t)
	owner := auth.UserIdentity(uuid.New())

	_, err := manager.Begin(context.Background(), owner)
	require.NoError(t, err)

	manager.Close(owner)
	manager.Close(owner)

	_, err = manager.Get(owner)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
