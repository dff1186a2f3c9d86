package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User owns inventory, wishlist, palettes and push tokens.
type User struct {
	ID          string                      `gorm:"column:id;type:text;primaryKey"`
	Email       string                      `gorm:"column:email;type:text;not null;default:''"`
	DisplayName string                      `gorm:"column:display_name;not null;default:''"`
	IsAdmin     bool                        `gorm:"column:is_admin;not null;default:false"`
	PushTokens  datatypes.JSONSlice[string] `gorm:"column:push_tokens"`
	CreatedAt   time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
