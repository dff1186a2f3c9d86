package images

import (
	"context"

	"github.com/angelmondragon/paintref-backend/internal/repo"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists reference images and the colors picked from them.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) CreateImage(ctx context.Context, image *models.UserColorImage) error {
	return r.DB(ctx).Create(image).Error
}

func (r *Repository) FindImage(ctx context.Context, id string) (*models.UserColorImage, error) {
	var image models.UserColorImage
	if err := r.DB(ctx).First(&image, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// ListImages returns a user's images, newest first.
func (r *Repository) ListImages(ctx context.Context, userID string) ([]models.UserColorImage, error) {
	var rows []models.UserColorImage
	if err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CreatePick(ctx context.Context, pick *models.ImageColorPick) error {
	return r.DB(ctx).Create(pick).Error
}

// ListPicks returns an image's picks in the order they were taken.
func (r *Repository) ListPicks(ctx context.Context, imageID string) ([]models.ImageColorPick, error) {
	var rows []models.ImageColorPick
	if err := r.DB(ctx).
		Where("image_id = ?", imageID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
