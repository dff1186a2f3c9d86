package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ColorSearch stores the paints a user kept from a similarity search.
type ColorSearch struct {
	ID        string                        `gorm:"column:id;type:text;primaryKey"`
	UserID    string                        `gorm:"column:user_id;type:text;not null;index:color_searches_user_created_idx,priority:1"`
	Paints    datatypes.JSONSlice[PaintKey] `gorm:"column:paints"`
	CreatedAt time.Time                     `gorm:"column:created_at;autoCreateTime;index:color_searches_user_created_idx,priority:2"`
}

func (c *ColorSearch) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
