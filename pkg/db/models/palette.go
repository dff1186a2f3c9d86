package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Palette is a user-owned named collection of paints.
type Palette struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:text;not null;index:palettes_user_created_idx,priority:1"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:palettes_user_created_idx,priority:2"`
}

func (p *Palette) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PalettePaint links a palette to a paint, optionally through a color pick.
type PalettePaint struct {
	ID               string    `gorm:"column:id;type:text;primaryKey"`
	PaletteID        string    `gorm:"column:palette_id;type:text;not null;index:palette_paints_palette_idx"`
	BrandID          string    `gorm:"column:brand_id;type:text;not null;index:palette_paints_paint_idx,priority:1"`
	PaintID          string    `gorm:"column:paint_id;type:text;not null;index:palette_paints_paint_idx,priority:2"`
	ImageColorPickID *string   `gorm:"column:image_color_pick_id;type:text;index:palette_paints_pick_idx"`
	AddedAt          time.Time `gorm:"column:added_at;autoCreateTime"`
}

func (p *PalettePaint) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
