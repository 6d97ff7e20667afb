package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplyhq/shoply-backend/pkg/db/models"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
	"github.com/shoplyhq/shoply-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LineInput is one purchased (product, variant) pair within a group.
type LineInput struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Title          string
	UnitPriceCents int
	Quantity       int
}

// GroupInput is one seller's slice of the checkout, already priced.
type GroupInput struct {
	SellerID       uuid.UUID
	ShippingMethod enums.ShippingMethod
	Note           *string
	Items          []LineInput
	SubtotalCents  int
	DiscountCents  int
	TaxCents       int
	ShippingCents  int
	TotalCents     int
}

// SubmissionInput is one checkout's worth of orders.
type SubmissionInput struct {
	OwnerID       string
	Address       types.ShippingAddress
	PaymentMethod enums.PaymentMethod
	Groups        []GroupInput
}

// PlacedOrder identifies one created order.
type PlacedOrder struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	SellerID    uuid.UUID `json:"seller_id"`
}

// Service splits one checkout submission into one order per seller group.
// The split is atomic: either every group's order is created or none is.
type Service interface {
	CreateOrders(ctx context.Context, input SubmissionInput) ([]PlacedOrder, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Order, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the order creation service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg, now: time.Now}, nil
}

func (s *service) validate(input SubmissionInput) error {
	if strings.TrimSpace(input.OwnerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if missing := input.Address.MissingFields(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("shipping address is missing required fields: %s", strings.Join(missing, ", "))).
			WithDetails(map[string]any{"missing_fields": missing})
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "a payment method must be selected")
	}
	if len(input.Groups) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one seller group is required")
	}
	for _, group := range input.Groups {
		if group.SellerID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "seller id is required on every group")
		}
		if len(group.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("seller group %s has no items", group.SellerID))
		}
	}
	return nil
}

func (s *service) CreateOrders(ctx context.Context, input SubmissionInput) ([]PlacedOrder, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	submissionID := uuid.New()
	now := s.now()
	placed := make([]PlacedOrder, 0, len(input.Groups))

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i, group := range input.Groups {
			method := group.ShippingMethod
			if !method.IsValid() {
				method = enums.ShippingMethodStandard
			}

			order := &models.Order{
				ID:              uuid.New(),
				OrderNumber:     orderNumber(now, submissionID, i),
				SubmissionID:    submissionID,
				OwnerID:         input.OwnerID,
				SellerID:        group.SellerID,
				Status:          enums.OrderStatusPending,
				PaymentMethod:   input.PaymentMethod,
				ShippingMethod:  method,
				ShippingAddress: input.Address,
				Note:            group.Note,
				SubtotalCents:   group.SubtotalCents,
				DiscountCents:   group.DiscountCents,
				TaxCents:        group.TaxCents,
				ShippingCents:   group.ShippingCents,
				TotalCents:      group.TotalCents,
			}
			for _, line := range group.Items {
				order.LineItems = append(order.LineItems, models.OrderLineItem{
					ID:             uuid.New(),
					OrderID:        order.ID,
					ProductID:      line.ProductID,
					VariantID:      line.VariantID,
					Title:          line.Title,
					UnitPriceCents: line.UnitPriceCents,
					Quantity:       line.Quantity,
					LineTotalCents: line.UnitPriceCents * line.Quantity,
				})
			}
			if err := repo.Create(ctx, order); err != nil {
				return err
			}
			placed = append(placed, PlacedOrder{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				SellerID:    order.SellerID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create orders")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"submission_id": submissionID.String(),
		"order_count":   len(placed),
	}), "orders created")
	return placed, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string) ([]models.Order, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// orderNumber derives a human-readable unique number: date, a short
// submission fragment, and the group's position within the submission.
func orderNumber(now time.Time, submissionID uuid.UUID, index int) string {
	fragment := strings.ToUpper(strings.ReplaceAll(submissionID.String(), "-", ""))[:8]
	return fmt.Sprintf("SO-%s-%s-%d", now.Format("20060102"), fragment, index+1)
}
