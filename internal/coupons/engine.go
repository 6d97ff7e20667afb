package coupons

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Applied is a coupon resolved against a concrete subtotal.
type Applied struct {
	Code          string `json:"code"`
	DiscountCents int    `json:"discount_cents"`
}

// Engine turns a coupon code plus a subtotal into a concrete discount.
// The arithmetic is pure: the engine never mutates cart state, so callers
// can re-run it against fresh subtotals after every cart change.
type Engine interface {
	Apply(ctx context.Context, code string, subtotalCents int) (*Applied, error)
	ApplyFirst(ctx context.Context, codes []string, subtotalCents int) (*Applied, error)
}

type engine struct {
	svc Service
}

// NewEngine builds the discount engine on top of coupon validation.
func NewEngine(svc Service) (Engine, error) {
	if svc == nil {
		return nil, fmt.Errorf("coupons service required")
	}
	return &engine{svc: svc}, nil
}

// Apply validates the code against the subtotal and computes its discount.
// A coupon whose computed discount is zero or negative is rejected the same
// way a structurally invalid one is.
func (e *engine) Apply(ctx context.Context, code string, subtotalCents int) (*Applied, error) {
	definition, err := e.svc.ValidateCoupon(ctx, code, subtotalCents)
	if err != nil {
		return nil, err
	}

	discount, err := ComputeDiscountCents(definition, subtotalCents)
	if err != nil {
		return nil, err
	}
	if discount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("coupon %s yields no discount on this subtotal", definition.Code))
	}

	return &Applied{Code: definition.Code, DiscountCents: discount}, nil
}

// ApplyFirst tries codes in order and returns the first one that applies.
// All-invalid is not an error: auto-apply candidates silently fall through.
func (e *engine) ApplyFirst(ctx context.Context, codes []string, subtotalCents int) (*Applied, error) {
	for _, code := range codes {
		applied, err := e.Apply(ctx, code, subtotalCents)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				continue
			}
			return nil, err
		}
		return applied, nil
	}
	return nil, nil
}

// ComputeDiscountCents evaluates a definition against a subtotal. Percentage
// coupons round down to whole cents and honor the per-coupon cap; absolute
// coupons never exceed the subtotal.
func ComputeDiscountCents(definition *Definition, subtotalCents int) (int, error) {
	if subtotalCents < 0 {
		return 0, fmt.Errorf("negative subtotal %d", subtotalCents)
	}

	switch definition.DiscountType {
	case enums.DiscountTypePercentage:
		if definition.DiscountValue < 0 || definition.DiscountValue > 100 {
			return 0, fmt.Errorf("percentage coupon %s out of range: %d", definition.Code, definition.DiscountValue)
		}
		discount := int(decimal.NewFromInt(int64(subtotalCents)).
			Mul(decimal.NewFromInt(int64(definition.DiscountValue))).
			Div(oneHundred).
			Floor().
			IntPart())
		if definition.MaxDiscountCents != nil && discount > *definition.MaxDiscountCents {
			discount = *definition.MaxDiscountCents
		}
		if discount > subtotalCents {
			discount = subtotalCents
		}
		return discount, nil

	case enums.DiscountTypeAbsolute:
		discount := definition.DiscountValue
		if discount > subtotalCents {
			discount = subtotalCents
		}
		return discount, nil

	default:
		return 0, fmt.Errorf("unknown discount type %q on coupon %s", definition.DiscountType, definition.Code)
	}
}
