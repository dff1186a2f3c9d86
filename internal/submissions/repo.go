package submissions

import (
	"context"

	"github.com/angelmondragon/paintref-backend/internal/repo"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists paint submissions.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

func (r *Repository) Create(ctx context.Context, submission *models.PaintSubmission) error {
	return r.DB(ctx).Create(submission).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.PaintSubmission, error) {
	var submission models.PaintSubmission
	if err := r.DB(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// List returns submissions newest first, optionally narrowed to one status.
func (r *Repository) List(ctx context.Context, status string) ([]models.PaintSubmission, error) {
	q := r.DB(ctx).Model(&models.PaintSubmission{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []models.PaintSubmission
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save writes every column of the submission.
func (r *Repository) Save(ctx context.Context, submission *models.PaintSubmission) error {
	return r.DB(ctx).Save(submission).Error
}
