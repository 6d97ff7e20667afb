package addresses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplyhq/shoply-backend/pkg/db/models"
)

// Repository encapsulates saved-address persistence.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.SavedAddress, error)
	FindByID(ctx context.Context, ownerID string, id uuid.UUID) (*models.SavedAddress, error)
	Create(ctx context.Context, address *models.SavedAddress) error
	Update(ctx context.Context, address *models.SavedAddress) error
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
	ClearDefault(ctx context.Context, ownerID string) error
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a saved-address repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) ListByOwner(ctx context.Context, ownerID string) ([]models.SavedAddress, error) {
	var rows []models.SavedAddress
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("is_default DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByID(ctx context.Context, ownerID string, id uuid.UUID) (*models.SavedAddress, error) {
	var row models.SavedAddress
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Create(ctx context.Context, address *models.SavedAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *repository) Update(ctx context.Context, address *models.SavedAddress) error {
	return r.db.WithContext(ctx).Save(address).Error
}

func (r *repository) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.SavedAddress{}).Error
}

func (r *repository) ClearDefault(ctx context.Context, ownerID string) error {
	return r.db.WithContext(ctx).
		Model(&models.SavedAddress{}).
		Where("owner_id = ? AND is_default", ownerID).
		Update("is_default", false).Error
}
