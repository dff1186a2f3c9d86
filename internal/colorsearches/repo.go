package colorsearches

import (
	"context"

	"github.com/angelmondragon/paintref-backend/internal/repo"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists saved color searches.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, search *models.ColorSearch) error {
	return r.DB(ctx).Create(search).Error
}

// ListByUser returns a user's searches, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.ColorSearch, error) {
	var rows []models.ColorSearch
	if err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
