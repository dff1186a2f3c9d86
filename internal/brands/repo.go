package brands

import (
	"context"

	"github.com/angelmondragon/paintref-backend/internal/repo"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes brand persistence.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, brand *models.Brand) error {
	return r.DB(ctx).Create(brand).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Brand, error) {
	var brand models.Brand
	if err := r.DB(ctx).First(&brand, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

// FindByName matches the exact brand name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Brand, error) {
	var brand models.Brand
	if err := r.DB(ctx).Where("name = ?", name).Order("id ASC").First(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

// List returns every brand ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Brand, error) {
	var rows []models.Brand
	if err := r.DB(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
