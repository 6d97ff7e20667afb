package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplyhq/shoply-backend/pkg/auth"
	"github.com/shoplyhq/shoply-backend/pkg/config"
)

type stubKV struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failSet bool
}

func newStubKV() *stubKV {
	return &stubKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubKV) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.failSet {
		return errors.New("connection reset")
	}
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	case string:
		s.data[key] = v
	default:
		return errors.New("unsupported value type")
	}
	s.ttls[key] = ttl
	return nil
}

func (s *stubKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *stubKV) CartKey(ownerID string) string {
	return "shoply:cart:" + ownerID
}

func testCartConfig() config.CartConfig {
	return config.CartConfig{
		SnapshotTTL:      30 * 24 * time.Hour,
		GuestSnapshotTTL: 7 * 24 * time.Hour,
	}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	t.Parallel()

	kv := newStubKV()
	store, err := NewSnapshotStore(kv, testCartConfig())
	require.NoError(t, err)

	owner := auth.UserIdentity(uuid.New())
	snapshot := NewSnapshot(owner.OwnerID)
	snapshot.Items = append(snapshot.Items, Item{
		ID:        uuid.New(),
		OwnerID:   owner.OwnerID,
		ProductID: uuid.New(),
		Quantity:  2,
		Snapshot:  ProductSnapshot{SellerID: uuid.New(), Title: "Mug", PriceCents: 1200},
	})
	snapshot.GlobalCoupon = &AppliedCoupon{Code: "SAVE5", DiscountCents: 500}

	require.NoError(t, store.Save(context.Background(), owner, snapshot))

	loaded, err := store.Load(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, snapshot.Items[0].ID, loaded.Items[0].ID)
	require.NotNil(t, loaded.GlobalCoupon)
	assert.Equal(t, "SAVE5", loaded.GlobalCoupon.Code)
	assert.NotNil(t, loaded.SellerCoupons)
}

func TestSnapshotStoreMissingKeyYieldsEmptyCart(t *testing.T) {
	t.Parallel()

	store, err := NewSnapshotStore(newStubKV(), testCartConfig())
	require.NoError(t, err)

	owner := auth.GuestIdentity("abc123")
	loaded, err := store.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
	assert.Equal(t, owner.OwnerID, loaded.OwnerID)
}

func TestSnapshotStoreGuestTTL(t *testing.T) {
	t.Parallel()

	kv := newStubKV()
	cfg := testCartConfig()
	store, err := NewSnapshotStore(kv, cfg)
	require.NoError(t, err)

	guest := auth.NewGuestIdentity()
	require.NoError(t, store.Save(context.Background(), guest, NewSnapshot(guest.OwnerID)))
	assert.Equal(t, cfg.GuestSnapshotTTL, kv.ttls[kv.CartKey(guest.OwnerID)])

	user := auth.UserIdentity(uuid.New())
	require.NoError(t, store.Save(context.Background(), user, NewSnapshot(user.OwnerID)))
	assert.Equal(t, cfg.SnapshotTTL, kv.ttls[kv.CartKey(user.OwnerID)])
}
