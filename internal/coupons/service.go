package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
)

// Definition is a validated, redeemable coupon.
type Definition struct {
	Code             string
	DiscountType     enums.DiscountType
	DiscountValue    int
	MaxDiscountCents *int
	MinSubtotalCents int
}

// Service validates coupon codes against their definitions. Validation is
// subtotal-aware: a structurally valid coupon is still rejected when the
// cart has not met its minimum spend.
type Service interface {
	ValidateCoupon(ctx context.Context, code string, subtotalCents int) (*Definition, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the coupon validation service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func invalid(message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message)
}

func (s *service) ValidateCoupon(ctx context.Context, code string, subtotalCents int) (*Definition, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, invalid("coupon code is required")
	}

	coupon, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid(fmt.Sprintf("coupon %s does not exist", normalized))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if !coupon.IsActive {
		return nil, invalid(fmt.Sprintf("coupon %s is no longer active", normalized))
	}
	if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(s.now()) {
		return nil, invalid(fmt.Sprintf("coupon %s has expired", normalized))
	}
	if subtotalCents < coupon.MinSubtotalCents {
		return nil, invalid(fmt.Sprintf(
			"coupon %s requires a subtotal of at least %d cents", normalized, coupon.MinSubtotalCents,
		))
	}

	return &Definition{
		Code:             coupon.Code,
		DiscountType:     coupon.DiscountType,
		DiscountValue:    coupon.DiscountValue,
		MaxDiscountCents: coupon.MaxDiscountCents,
		MinSubtotalCents: coupon.MinSubtotalCents,
	}, nil
}
