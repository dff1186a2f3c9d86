package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryEntry records that a user owns a paint.
type InventoryEntry struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:text;not null;uniqueIndex:inventory_entries_user_paint_key,priority:1;index:inventory_entries_user_created_idx,priority:1"`
	BrandID   string    `gorm:"column:brand_id;type:text;not null;uniqueIndex:inventory_entries_user_paint_key,priority:2"`
	PaintID   string    `gorm:"column:paint_id;type:text;not null;uniqueIndex:inventory_entries_user_paint_key,priority:3"`
	Quantity  int       `gorm:"column:quantity;not null;default:0;check:quantity >= 0"`
	Notes     string    `gorm:"column:notes;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:inventory_entries_user_created_idx,priority:2"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *InventoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
