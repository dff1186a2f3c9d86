package flags

import (
	"context"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Find(ctx context.Context, name string) (*models.Flag, error) {
	var flag models.Flag
	if err := r.db.WithContext(ctx).First(&flag, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &flag, nil
}

// Upsert writes the flag, replacing any previous value.
func (r *Repository) Upsert(ctx context.Context, flag *models.Flag) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(flag).Error
}
