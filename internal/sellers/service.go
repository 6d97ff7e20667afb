package sellers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
)

// Profile is the read view of a seller rendered on cart seller groups.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	Rating      float64   `json:"rating"`
	IsAvailable bool      `json:"is_available"`
}

// Service exposes seller lookups to the cart aggregation layer.
type Service interface {
	GetSeller(ctx context.Context, sellerID uuid.UUID) (*Profile, error)
}

type service struct {
	repo Repository
}

// NewService builds the seller directory service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetSeller(ctx context.Context, sellerID uuid.UUID) (*Profile, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}

	seller, err := s.repo.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}

	return &Profile{
		ID:          seller.ID,
		Name:        seller.Name,
		Slug:        seller.Slug,
		LogoURL:     seller.LogoURL,
		Rating:      seller.Rating,
		IsAvailable: seller.IsAvailable,
	}, nil
}
