package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserColorImage is an uploaded reference image; the blob lives elsewhere.
type UserColorImage struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:text;not null;index:user_color_images_user_idx"`
	ImagePath string    `gorm:"column:image_path;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *UserColorImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// ImageColorPick is a color sampled at a point of a UserColorImage.
type ImageColorPick struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	ImageID   string    `gorm:"column:image_id;type:text;not null;index:image_color_picks_image_idx"`
	HexColor  string    `gorm:"column:hex_color;not null"`
	R         int       `gorm:"column:r;not null"`
	G         int       `gorm:"column:g;not null"`
	B         int       `gorm:"column:b;not null"`
	XCoord    float64   `gorm:"column:x_coord;not null;default:0"`
	YCoord    float64   `gorm:"column:y_coord;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *ImageColorPick) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
