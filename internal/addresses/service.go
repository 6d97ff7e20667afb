package addresses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplyhq/shoply-backend/pkg/db/models"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SaveInput carries the fields for creating or editing a saved address.
type SaveInput struct {
	Label     *string
	Address   types.ShippingAddress
	IsDefault bool
}

// Service manages a shopper's saved shipping addresses.
type Service interface {
	List(ctx context.Context, ownerID string) ([]models.SavedAddress, error)
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*models.SavedAddress, error)
	Create(ctx context.Context, ownerID string, input SaveInput) (*models.SavedAddress, error)
	Update(ctx context.Context, ownerID string, id uuid.UUID, input SaveInput) (*models.SavedAddress, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the saved-address service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("addresses repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func validateInput(ownerID string, input SaveInput) error {
	if strings.TrimSpace(ownerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if missing := input.Address.MissingFields(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("address is missing required fields: %s", strings.Join(missing, ", "))).
			WithDetails(map[string]any{"missing_fields": missing})
	}
	return nil
}

func (s *service) List(ctx context.Context, ownerID string) ([]models.SavedAddress, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list saved addresses")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, ownerID string, id uuid.UUID) (*models.SavedAddress, error) {
	row, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "saved address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load saved address")
	}
	return row, nil
}

func (s *service) Create(ctx context.Context, ownerID string, input SaveInput) (*models.SavedAddress, error) {
	if err := validateInput(ownerID, input); err != nil {
		return nil, err
	}

	row := &models.SavedAddress{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Label:     input.Label,
		Address:   input.Address,
		IsDefault: input.IsDefault,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, ownerID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, row)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create saved address")
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, ownerID string, id uuid.UUID, input SaveInput) (*models.SavedAddress, error) {
	if err := validateInput(ownerID, input); err != nil {
		return nil, err
	}

	row, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	row.Label = input.Label
	row.Address = input.Address
	row.IsDefault = input.IsDefault

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, ownerID); err != nil {
				return err
			}
		}
		return repo.Update(ctx, row)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update saved address")
	}
	return row, nil
}

func (s *service) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete saved address")
	}
	return nil
}
