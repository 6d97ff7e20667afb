package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shoplyhq/shoply-backend/api/middleware"
	cartsvc "github.com/shoplyhq/shoply-backend/internal/cart"
	"github.com/shoplyhq/shoply-backend/internal/catalog"
	"github.com/shoplyhq/shoply-backend/internal/coupons"
	"github.com/shoplyhq/shoply-backend/internal/sellers"
	"github.com/shoplyhq/shoply-backend/pkg/auth"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
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

type stubSellers struct{}

func (stubSellers) GetSeller(ctx context.Context, sellerID uuid.UUID) (*sellers.Profile, error) {
	return &sellers.Profile{ID: sellerID, Name: "Seller", IsAvailable: true}, nil
}

type stubCatalog struct {
	products map[uuid.UUID]*catalog.ProductDetail
}

func (s *stubCatalog) GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductDetail, error) {
	if product, ok := s.products[productID]; ok {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type stubEngine struct{}

func (stubEngine) Apply(ctx context.Context, code string, subtotalCents int) (*coupons.Applied, error) {
	if code != "TENOFF" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is not valid")
	}
	return &coupons.Applied{Code: code, DiscountCents: subtotalCents / 10}, nil
}

func (stubEngine) ApplyFirst(ctx context.Context, codes []string, subtotalCents int) (*coupons.Applied, error) {
	return nil, nil
}

func newFactory(t *testing.T, catalogStub *stubCatalog) *cartsvc.Factory {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	cfg := config.CheckoutConfig{TaxRate: 0.10, StandardFeeCents: 500, StandardLeadDays: 5}

	aggregator, err := cartsvc.NewAggregator(stubSellers{}, cfg, logg)
	if err != nil {
		t.Fatalf("aggregator: %v", err)
	}
	validator, err := cartsvc.NewValidator(catalogStub)
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	snapshots, err := cartsvc.NewSnapshotStore(&memKV{data: map[string]string{}}, config.CartConfig{
		SnapshotTTL:      time.Hour,
		GuestSnapshotTTL: time.Minute,
	})
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	factory, err := cartsvc.NewFactory(cartsvc.Dependencies{
		Engine:     stubEngine{},
		Aggregator: aggregator,
		Validator:  validator,
		Snapshots:  snapshots,
		Logger:     logg,
	})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	return factory
}

func activeProduct(sellerID uuid.UUID, priceCents, stock int) *catalog.ProductDetail {
	return &catalog.ProductDetail{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Title:         "Desk Lamp",
		PriceCents:    priceCents,
		StockQuantity: stock,
		Status:        enums.ProductStatusActive,
	}
}

func withIdentity(req *http.Request, identity auth.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func TestCartFetchEmpty(t *testing.T) {
	factory := newFactory(t, &stubCatalog{})
	handler := CartFetch(factory, nil)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), auth.GuestIdentity("g1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(envelope.Data.Cart.Items))
	}
	if envelope.Data.Totals.TotalCents != 0 {
		t.Fatalf("expected zero total, got %d", envelope.Data.Totals.TotalCents)
	}
}

func TestCartFetchMissingIdentity(t *testing.T) {
	factory := newFactory(t, &stubCatalog{})
	handler := CartFetch(factory, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemSuccess(t *testing.T) {
	sellerID := uuid.New()
	product := activeProduct(sellerID, 2500, 10)
	catalogStub := &stubCatalog{products: map[uuid.UUID]*catalog.ProductDetail{product.ID: product}}
	factory := newFactory(t, catalogStub)
	handler := CartAddItem(factory, catalogStub, nil)

	body, _ := json.Marshal(map[string]any{"product_id": product.ID, "quantity": 2})
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body)), auth.GuestIdentity("g1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data cartView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Cart.Items) != 1 {
		t.Fatalf("expected one cart item, got %d", len(envelope.Data.Cart.Items))
	}
	if got := envelope.Data.Cart.Items[0].Quantity; got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}
	if envelope.Data.Totals.SubtotalCents != 5000 {
		t.Fatalf("expected subtotal 5000, got %d", envelope.Data.Totals.SubtotalCents)
	}
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	catalogStub := &stubCatalog{}
	factory := newFactory(t, catalogStub)
	handler := CartAddItem(factory, catalogStub, nil)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":1}`, uuid.New())
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte(body))), auth.GuestIdentity("g1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	catalogStub := &stubCatalog{}
	factory := newFactory(t, catalogStub)
	handler := CartAddItem(factory, catalogStub, nil)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":0}`, uuid.New())
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte(body))), auth.GuestIdentity("g1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartApplyCouponRejectsUnknownCode(t *testing.T) {
	sellerID := uuid.New()
	product := activeProduct(sellerID, 2500, 10)
	catalogStub := &stubCatalog{products: map[uuid.UUID]*catalog.ProductDetail{product.ID: product}}
	factory := newFactory(t, catalogStub)

	add := CartAddItem(factory, catalogStub, nil)
	body, _ := json.Marshal(map[string]any{"product_id": product.ID, "quantity": 1})
	addReq := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body)), auth.GuestIdentity("g1"))
	addResp := httptest.NewRecorder()
	add.ServeHTTP(addResp, addReq)
	if addResp.Code != http.StatusOK {
		t.Fatalf("seed cart: expected 200 got %d", addResp.Code)
	}

	handler := CartApplyCoupon(factory, nil)
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupons", bytes.NewReader([]byte(`{"code":"NOPE"}`))), auth.GuestIdentity("g1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
