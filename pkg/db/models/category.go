package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a distinct paint category derived from set names.
type Category struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:categories_name_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// All lists every catalog model, in dependency order, for schema bootstrapping.
func All() []any {
	return []any{
		&Brand{},
		&Paint{},
		&User{},
		&InventoryEntry{},
		&WishlistEntry{},
		&Palette{},
		&UserColorImage{},
		&ImageColorPick{},
		&PalettePaint{},
		&PaintSubmission{},
		&ColorSearch{},
		&Category{},
		&Project{},
		&ProjectItem{},
		&ProjectShare{},
		&Flag{},
	}
}
