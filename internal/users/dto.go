package users

import (
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits push tokens.
type UserDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (dto CreateUserDTO) ToModel() *models.User {
	return &models.User{
		ID:          dto.ID,
		Email:       dto.Email,
		DisplayName: dto.DisplayName,
		IsAdmin:     dto.IsAdmin,
		PushTokens:  []string{},
	}
}
