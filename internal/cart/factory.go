package cart

import (
	"context"

	"github.com/shoplyhq/shoply-backend/pkg/auth"
)

// Factory opens request-scoped stores over one shared set of collaborators.
// Each Open reloads the owner's persisted snapshot, so a store never outlives
// the request (or checkout attempt) it was opened for.
type Factory struct {
	deps Dependencies
}

// NewFactory validates the collaborators once so every Open is cheap.
func NewFactory(deps Dependencies) (*Factory, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Factory{deps: deps}, nil
}

// Open loads the owner's cart into a fresh store instance.
func (f *Factory) Open(ctx context.Context, owner auth.Identity) (*Store, error) {
	return NewStore(ctx, owner, f.deps)
}
