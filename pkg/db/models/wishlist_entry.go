package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistEntry records that a user desires a paint. Priority is a dense
// 1..N rank among the user's active ranked entries; 0 means unranked.
// Soft-deleted rows keep their type and priority for reactivation.
type WishlistEntry struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:text;not null;uniqueIndex:wishlist_entries_user_paint_key,priority:1;index:wishlist_entries_user_active_idx,priority:1"`
	BrandID   string    `gorm:"column:brand_id;type:text;not null;uniqueIndex:wishlist_entries_user_paint_key,priority:2"`
	PaintID   string    `gorm:"column:paint_id;type:text;not null;uniqueIndex:wishlist_entries_user_paint_key,priority:3"`
	Type      string    `gorm:"column:type;not null;default:''"`
	Priority  int       `gorm:"column:priority;not null;default:0"`
	Deleted   bool      `gorm:"column:deleted;not null;default:false;index:wishlist_entries_user_active_idx,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *WishlistEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
