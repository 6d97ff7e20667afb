package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shoplyhq/shoply-backend/pkg/auth"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
)

// kv is the slice of the redis client the snapshot store needs.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(ownerID string) string
}

// SnapshotStore persists one cart record per owner identity. The in-memory
// snapshot stays the source of truth within a session; the persisted copy is
// read once at session start.
type SnapshotStore interface {
	Load(ctx context.Context, owner auth.Identity) (*Snapshot, error)
	Save(ctx context.Context, owner auth.Identity, snapshot *Snapshot) error
	Delete(ctx context.Context, owner auth.Identity) error
}

type redisSnapshotStore struct {
	kv  kv
	cfg config.CartConfig
}

// NewSnapshotStore builds a Redis-backed snapshot store. Guest carts expire
// sooner than authenticated ones; that TTL choice is the only place guest
// identity changes behavior outside the checkout auth step.
func NewSnapshotStore(store kv, cfg config.CartConfig) (SnapshotStore, error) {
	if store == nil {
		return nil, fmt.Errorf("cart kv store required")
	}
	return &redisSnapshotStore{kv: store, cfg: cfg}, nil
}

func (r *redisSnapshotStore) Load(ctx context.Context, owner auth.Identity) (*Snapshot, error) {
	raw, err := r.kv.Get(ctx, r.kv.CartKey(owner.OwnerID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return NewSnapshot(owner.OwnerID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart snapshot")
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart snapshot")
	}
	snapshot.OwnerID = owner.OwnerID
	if snapshot.SellerCoupons == nil {
		snapshot.SellerCoupons = map[uuid.UUID]AppliedCoupon{}
	}
	return &snapshot, nil
}

func (r *redisSnapshotStore) Save(ctx context.Context, owner auth.Identity, snapshot *Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}

	ttl := r.cfg.SnapshotTTL
	if owner.IsGuest {
		ttl = r.cfg.GuestSnapshotTTL
	}
	if err := r.kv.Set(ctx, r.kv.CartKey(owner.OwnerID), payload, ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart snapshot")
	}
	return nil
}

func (r *redisSnapshotStore) Delete(ctx context.Context, owner auth.Identity) error {
	if err := r.kv.Del(ctx, r.kv.CartKey(owner.OwnerID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart snapshot")
	}
	return nil
}
