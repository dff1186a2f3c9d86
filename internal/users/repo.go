package users

import (
	"context"

	"github.com/angelmondragon/paintref-backend/internal/repo"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs loads the users for ids in one query, keyed by id. Unknown ids are absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.User
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

// ListWithTokens returns users that have at least one push token.
func (r *Repository) ListWithTokens(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	if err := r.DB(ctx).Where("push_tokens IS NOT NULL").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, u := range rows {
		if len(u.PushTokens) > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}

// SetPushTokens overwrites the user's token list.
func (r *Repository) SetPushTokens(ctx context.Context, id string, tokens []string) error {
	if tokens == nil {
		tokens = []string{}
	}
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("push_tokens", datatypes.JSONSlice[string](tokens))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
