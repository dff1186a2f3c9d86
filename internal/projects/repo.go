package projects

import (
	"context"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/docstore"
	"gorm.io/gorm"
)

var projectSchema = docstore.Schema{
	"userId":    "user_id",
	"nameLower": "name_lower",
	"public":    "public",
	"createdAt": "created_at",
	"id":        "id",
}

var shareSchema = docstore.Schema{
	"userId":    "user_id",
	"createdAt": "created_at",
	"id":        "id",
}

// Repository persists projects, their items and share records.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) scanProjects(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Project{})
}

func (r *Repository) scanShares(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ProjectShare{})
}

func (r *Repository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *Repository) Save(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByIDs loads projects keyed by id. Unknown ids are absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Project, error) {
	out := make(map[string]models.Project, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Project
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Project{}).Error
}

func (r *Repository) CreateItem(ctx context.Context, item *models.ProjectItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) FindItem(ctx context.Context, id string) (*models.ProjectItem, error) {
	var item models.ProjectItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByRef returns the item of projectID pointing at the given record.
func (r *Repository) FindItemByRef(ctx context.Context, projectID, kind, refID, brandID string) (*models.ProjectItem, error) {
	var item models.ProjectItem
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND kind = ? AND ref_id = ? AND brand_id = ?", projectID, kind, refID, brandID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemsFor returns the items of the given projects oldest first.
func (r *Repository) ItemsFor(ctx context.Context, projectIDs []string) ([]models.ProjectItem, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var rows []models.ProjectItem
	if err := r.db.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProjectItem{}).Error
}

func (r *Repository) DeleteItems(ctx context.Context, projectID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.ProjectItem{})
	return res.RowsAffected, res.Error
}

func (r *Repository) CreateShare(ctx context.Context, share *models.ProjectShare) error {
	return r.db.WithContext(ctx).Create(share).Error
}

func (r *Repository) FindShare(ctx context.Context, projectID, userID string) (*models.ProjectShare, error) {
	var share models.ProjectShare
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *Repository) DeleteShare(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProjectShare{}).Error
}

func (r *Repository) DeleteShares(ctx context.Context, projectID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.ProjectShare{})
	return res.RowsAffected, res.Error
}
