package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplyhq/shoply-backend/pkg/enums"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
)

// VariantDetail is the read view of one sellable variant.
type VariantDetail struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	PriceCents    int       `json:"price_cents"`
	StockQuantity int       `json:"stock_quantity"`
}

// ProductDetail is the authoritative read view the cart validates against.
type ProductDetail struct {
	ID            uuid.UUID           `json:"id"`
	SellerID      uuid.UUID           `json:"seller_id"`
	Title         string              `json:"title"`
	PriceCents    int                 `json:"price_cents"`
	StockQuantity int                 `json:"stock_quantity"`
	Status        enums.ProductStatus `json:"status"`
	Images        []string            `json:"images,omitempty"`
	Variants      []VariantDetail     `json:"variants,omitempty"`
}

// IsPurchasable reports whether the listing is in a sellable state.
func (p *ProductDetail) IsPurchasable() bool {
	return p != nil && p.Status == enums.ProductStatusActive
}

// EffectivePriceCents returns the variant price when a variant is set,
// falling back to the product price. Precedence is identical everywhere
// line prices are computed.
func (p *ProductDetail) EffectivePriceCents(variantID *uuid.UUID) (int, error) {
	if variantID == nil {
		return p.PriceCents, nil
	}
	for _, variant := range p.Variants {
		if variant.ID == *variantID {
			return variant.PriceCents, nil
		}
	}
	return 0, fmt.Errorf("variant %s not found on product %s", variantID, p.ID)
}

// EffectiveStock returns the variant stock when a variant is set, falling
// back to product stock.
func (p *ProductDetail) EffectiveStock(variantID *uuid.UUID) (int, error) {
	if variantID == nil {
		return p.StockQuantity, nil
	}
	for _, variant := range p.Variants {
		if variant.ID == *variantID {
			return variant.StockQuantity, nil
		}
	}
	return 0, fmt.Errorf("variant %s not found on product %s", variantID, p.ID)
}

// Service exposes catalog lookups to the cart and checkout layers.
type Service interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDetail, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDetail, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	detail := &ProductDetail{
		ID:            product.ID,
		SellerID:      product.SellerID,
		Title:         product.Title,
		PriceCents:    product.PriceCents,
		StockQuantity: product.StockQuantity,
		Status:        product.Status,
		Images:        product.Images,
	}
	for _, variant := range product.Variants {
		detail.Variants = append(detail.Variants, VariantDetail{
			ID:            variant.ID,
			Title:         variant.Title,
			PriceCents:    variant.PriceCents,
			StockQuantity: variant.StockQuantity,
		})
	}
	return detail, nil
}
